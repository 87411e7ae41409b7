package state

import (
	"sync"
	"time"

	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
	"github.com/signalmesh/trafficctl/internal/wire"
)

// Phase indexes one slot of a lane's executed cycle.
type Phase int

const (
	PhaseGreen Phase = iota
	PhaseYellow1
	PhaseRed
	PhaseYellow2
)

func (p Phase) String() string {
	switch p {
	case PhaseGreen:
		return "green"
	case PhaseYellow1:
		return "yellow_1"
	case PhaseRed:
		return "red"
	case PhaseYellow2:
		return "yellow_2"
	default:
		return "unknown"
	}
}

// NoPriorityLane marks PriorityLane as undefined while the beacon is
// idle.
const NoPriorityLane = -1

// TrafficState is the canonical record for all four junctions. It is a
// plain value type: Store.Snapshot hands out copies, never aliases.
type TrafficState struct {
	DensityBefore [junction.Count]int      `json:"density"`
	DensityAfter  [junction.Count]int      `json:"density_after"`
	Halting       [junction.Count]int      `json:"halting"`
	SensorStatus  [2 * junction.Count]bool `json:"sensor_status"`
	CurrentPhase  [junction.Count]Phase    `json:"current_phase_idx"`
	CurrentTimes  [junction.Count][4]int   `json:"current_times"`
	NextGreen     [junction.Count]int      `json:"next_green"`
	PrevGreen     [junction.Count]int      `json:"prev_green"`
	CycleProgress [junction.Count]int      `json:"cycle_progress"`
	LatencyMS     int                      `json:"latency_ms"`
	Beacon        bool                     `json:"beacon"`
	PriorityLane  int                      `json:"priority_lane"`
	BeaconStart   time.Time                `json:"beacon_start_time"`
	LastUpdate    time.Time                `json:"last_update"`
}

// Store owns the canonical TrafficState behind one exclusive lock.
// The link manager and control-plane handlers are its only writers;
// every consumer reads through Snapshot. The lock is scoped to each
// mutation and never held across I/O.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	state TrafficState

	// beaconDeadline is the observer-facing end of the override
	// window; activation and extension both renew it.
	beaconDeadline time.Time
}

// NewStore builds a store with process-start defaults.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock injects the wall clock, for deterministic tests.
func NewStoreWithClock(now func() time.Time) *Store {
	s := &Store{now: now}
	s.state = defaultState(now())
	return s
}

func defaultState(now time.Time) TrafficState {
	st := TrafficState{
		PriorityLane: NoPriorityLane,
		BeaconStart:  now,
		LastUpdate:   now,
	}
	for i := 0; i < junction.Count; i++ {
		st.CurrentTimes[i] = [4]int{cycle.FallbackGreen, cycle.YellowTime, 15, cycle.YellowTime}
		st.NextGreen[i] = cycle.FallbackGreen
		st.PrevGreen[i] = cycle.FallbackGreen
	}
	for i := range st.SensorStatus {
		st.SensorStatus[i] = true
	}
	return st
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() TrafficState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Touch records link activity. Every complete line from the field
// controller, recognized or not, counts as a connectivity heartbeat.
func (s *Store) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastUpdate = s.now()
}

// LastUpdateAge reports time elapsed since the last heartbeat.
func (s *Store) LastUpdateAge() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.state.LastUpdate)
}

// Fresh reports whether the last heartbeat is younger than threshold.
func (s *Store) Fresh(threshold time.Duration) bool {
	return s.LastUpdateAge() < threshold
}

// Apply folds one decoded field-controller event into the record. The
// returned error is diagnostic only; the stream always continues.
func (s *Store) Apply(ev wire.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := ev.(type) {
	case wire.DensityUpdate:
		s.state.DensityBefore = e.Before
		s.state.DensityAfter = e.After
	case wire.CycleObservation:
		s.state.DensityBefore = e.Before
		s.state.DensityAfter = e.After
		s.state.Halting = [junction.Count]int{}
	case wire.PriorityRequest:
		return s.activateLocked(e.Lane)
	case wire.AppliedCycle:
		s.state.CurrentTimes = e.Times
	case wire.ProgressUpdate:
		s.state.CycleProgress[e.Lane] = e.Percent
	case wire.LatencyReport:
		s.state.LatencyMS = e.Millis
	case wire.BeaconClear:
		// Field controller timed the override out. Clearing an
		// already-idle beacon from the field side is not an error.
		s.clearLocked()
	case wire.BeaconExtended:
		// Acknowledgement only.
	case wire.SensorStatus:
		s.state.SensorStatus = e.Online
	}
	return nil
}

// CommitProposal stores a validated green allocation for the upcoming
// cycle, rolling the previous proposal into PrevGreen.
func (s *Store) CommitProposal(green [junction.Count]int, latencyMS int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PrevGreen = s.state.NextGreen
	s.state.NextGreen = green
	s.state.LatencyMS = latencyMS
}
