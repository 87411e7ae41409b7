package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
)

// BeaconDuration is the override window the field controller enforces.
// Extending rewinds the start time by exactly this much.
const BeaconDuration = 30 * time.Second

var (
	// ErrLaneOutOfRange rejects priority activation for an unknown lane.
	ErrLaneOutOfRange = errors.New("state: priority lane out of range")
	// ErrBeaconIdle rejects clear/extend while no override is active.
	ErrBeaconIdle = errors.New("state: no active beacon")
)

// ActivateBeacon starts (or re-targets) the emergency override for one
// lane. Re-activating while active overwrites lane and start time;
// last write wins, there is no queueing.
func (s *Store) ActivateBeacon(lane int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked(lane)
}

func (s *Store) activateLocked(lane int) error {
	if !junction.ValidLane(lane) {
		return fmt.Errorf("%w: %d", ErrLaneOutOfRange, lane)
	}
	s.state.Beacon = true
	s.state.PriorityLane = lane
	s.state.BeaconStart = s.now()
	s.beaconDeadline = s.state.BeaconStart.Add(BeaconDuration)
	// The override bypasses any pending proposal outright.
	s.state.NextGreen = cycle.PriorityAllocation(lane)
	return nil
}

// ClearBeacon ends the override. Clearing while idle is a control-plane
// error; state is unchanged.
func (s *Store) ClearBeacon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Beacon {
		return ErrBeaconIdle
	}
	s.clearLocked()
	return nil
}

func (s *Store) clearLocked() {
	s.state.Beacon = false
	s.state.PriorityLane = NoPriorityLane
}

// ExtendBeacon renews the override window for another full
// BeaconDuration without changing lane. The recorded start time is
// rewound by one window, matching how the field controller accounts
// for extended overrides; the remaining-time deadline restarts from
// now. Extending while idle is an error; state is unchanged.
func (s *Store) ExtendBeacon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Beacon || s.state.PriorityLane == NoPriorityLane {
		return ErrBeaconIdle
	}
	now := s.now()
	s.state.BeaconStart = now.Add(-BeaconDuration)
	s.beaconDeadline = now.Add(BeaconDuration)
	return nil
}

// BeaconActive reports the current override target, if any.
func (s *Store) BeaconActive() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Beacon {
		return NoPriorityLane, false
	}
	return s.state.PriorityLane, true
}

// BeaconRemaining reports how much of the override window is left,
// as observers reason about it. The field controller owns the actual
// timeout; past the deadline this reports zero, not an error.
func (s *Store) BeaconRemaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Beacon {
		return 0, false
	}
	remaining := s.beaconDeadline.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
