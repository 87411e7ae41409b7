package policy

import (
	"fmt"
	"strings"

	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
)

// ObservationSize is the fixed policy input width: five normalized
// groups of four lane values.
const ObservationSize = 5 * junction.Count

// Observation layout offsets. Each group holds one value per lane.
const (
	OffsetDensityBefore = 0
	OffsetDensityAfter  = junction.Count
	OffsetHalting       = 2 * junction.Count
	OffsetPrevGreen     = 3 * junction.Count
	OffsetProgress      = 4 * junction.Count
)

// Observation is the normalized traffic feature vector handed to a
// policy. All values are fractions of their fixed maxima.
type Observation [ObservationSize]float64

// Policy maps one observation to a green-time allocation, one fraction
// in [0,1] per lane. Implementations are opaque to the loop; the
// trained model lives behind this interface.
type Policy interface {
	Predict(obs Observation) ([junction.Count]float64, error)
}

// DefaultAllocation is the safe green split used when the policy
// fails or returns malformed output.
func DefaultAllocation() [junction.Count]int {
	var out [junction.Count]int
	for i := range out {
		out[i] = cycle.FallbackGreen
	}
	return out
}

// Balanced is the trivial policy: an even split across all lanes.
type Balanced struct{}

func (Balanced) Predict(Observation) ([junction.Count]float64, error) {
	return [junction.Count]float64{0.5, 0.5, 0.5, 0.5}, nil
}

// QueueWeighted allocates green time in proportion to observed demand
// (approach density plus halting queue). Deterministic; serves as the
// in-repo stand-in when no trained model is deployed.
type QueueWeighted struct{}

func (QueueWeighted) Predict(obs Observation) ([junction.Count]float64, error) {
	var demand [junction.Count]float64
	peak := 0.0
	for i := 0; i < junction.Count; i++ {
		demand[i] = obs[OffsetDensityBefore+i] + obs[OffsetHalting+i]
		if demand[i] > peak {
			peak = demand[i]
		}
	}
	var action [junction.Count]float64
	if peak == 0 {
		for i := range action {
			action[i] = 0.5
		}
		return action, nil
	}
	for i := range action {
		action[i] = demand[i] / peak
	}
	return action, nil
}

// New builds a policy by configured name.
func New(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "balanced":
		return Balanced{}, nil
	case "queue_weighted", "queue-weighted", "queue":
		return QueueWeighted{}, nil
	default:
		return nil, fmt.Errorf("policy: unknown policy %q", name)
	}
}
