package coordinator

import (
	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
	"github.com/signalmesh/trafficctl/internal/policy"
	"github.com/signalmesh/trafficctl/internal/state"
)

// BuildObservation normalizes a state snapshot into the fixed policy
// input vector. Each group is divided by its fixed maximum so the
// layout matches what the model saw in training.
func BuildObservation(snap state.TrafficState) policy.Observation {
	var obs policy.Observation
	for i := 0; i < junction.Count; i++ {
		obs[policy.OffsetDensityBefore+i] = float64(snap.DensityBefore[i]) / junction.MaxDensity
		obs[policy.OffsetDensityAfter+i] = float64(snap.DensityAfter[i]) / junction.MaxDensity
		obs[policy.OffsetHalting+i] = float64(snap.Halting[i]) / junction.MaxHalting
		obs[policy.OffsetPrevGreen+i] = float64(snap.PrevGreen[i]) / float64(cycle.GreenMax)
		obs[policy.OffsetProgress+i] = float64(snap.CycleProgress[i]) / 100.0
	}
	return obs
}
