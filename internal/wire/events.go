package wire

import "github.com/signalmesh/trafficctl/internal/junction"

// Event is one decoded line from the field controller. The set of
// implementations is closed; consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// DensityUpdate carries mid-cycle vehicle counts for all lanes.
type DensityUpdate struct {
	Before [junction.Count]int
	After  [junction.Count]int
}

// CycleObservation carries end-of-cycle counts stamped by the field
// controller. Applying it also resets stale halting counts.
type CycleObservation struct {
	Timestamp int64
	Before    [junction.Count]int
	After     [junction.Count]int
}

// PriorityRequest is a field-side emergency beacon detection.
type PriorityRequest struct {
	Lane int
}

// AppliedCycle reports the phase durations the controller is actually
// executing, four durations per lane.
type AppliedCycle struct {
	Times [junction.Count][4]int
}

// ProgressUpdate reports percent progress through one lane's phase.
type ProgressUpdate struct {
	Lane    int
	Percent int
}

// LatencyReport echoes the round-trip latency the controller measured
// for the last accepted proposal.
type LatencyReport struct {
	Millis int
}

// BeaconClear signals the controller timed the override out.
type BeaconClear struct{}

// BeaconExtended acknowledges an EXTEND_BEACON command.
type BeaconExtended struct{}

// SensorStatus reports per-sensor health, two sensors per lane.
type SensorStatus struct {
	Online [2 * junction.Count]bool
}

func (DensityUpdate) isEvent()    {}
func (CycleObservation) isEvent() {}
func (PriorityRequest) isEvent()  {}
func (AppliedCycle) isEvent()     {}
func (ProgressUpdate) isEvent()   {}
func (LatencyReport) isEvent()    {}
func (BeaconClear) isEvent()      {}
func (BeaconExtended) isEvent()   {}
func (SensorStatus) isEvent()     {}
