package state

import (
	"testing"
	"time"

	"github.com/signalmesh/trafficctl/internal/testutil/testlog"
	"github.com/signalmesh/trafficctl/internal/wire"
)

// fakeClock steps time manually for deterministic freshness tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestDefaultsAtProcessStart(t *testing.T) {
	testlog.Start(t)
	snap := NewStore().Snapshot()

	if snap.Beacon || snap.PriorityLane != NoPriorityLane {
		t.Fatalf("beacon must start idle: %+v", snap)
	}
	for lane := 0; lane < 4; lane++ {
		if snap.CurrentTimes[lane] != [4]int{30, 5, 15, 5} {
			t.Fatalf("lane %d default times = %v", lane, snap.CurrentTimes[lane])
		}
		if snap.NextGreen[lane] != 30 || snap.PrevGreen[lane] != 30 {
			t.Fatalf("lane %d default greens next=%d prev=%d", lane, snap.NextGreen[lane], snap.PrevGreen[lane])
		}
	}
	for i, online := range snap.SensorStatus {
		if !online {
			t.Fatalf("sensor %d must default online", i)
		}
	}
}

func TestApplyDensityUpdate(t *testing.T) {
	testlog.Start(t)
	s := NewStore()
	if err := s.Apply(wire.DensityUpdate{Before: [4]int{1, 3, 5, 7}, After: [4]int{2, 4, 6, 8}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap := s.Snapshot()
	if snap.DensityBefore != [4]int{1, 3, 5, 7} || snap.DensityAfter != [4]int{2, 4, 6, 8} {
		t.Fatalf("densities not applied: %+v", snap)
	}
}

func TestApplyCycleObservationZeroesHalting(t *testing.T) {
	testlog.Start(t)
	s := NewStore()
	s.mu.Lock()
	s.state.Halting = [4]int{9, 9, 9, 9}
	s.mu.Unlock()

	if err := s.Apply(wire.CycleObservation{Before: [4]int{4, 0, 0, 0}, After: [4]int{1, 0, 0, 0}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap := s.Snapshot()
	if snap.Halting != [4]int{} {
		t.Fatalf("halting not reset: %v", snap.Halting)
	}
	if snap.DensityBefore != [4]int{4, 0, 0, 0} {
		t.Fatalf("densities not applied: %v", snap.DensityBefore)
	}
}

func TestApplyProgressAndLatencyAndSensors(t *testing.T) {
	testlog.Start(t)
	s := NewStore()
	if err := s.Apply(wire.ProgressUpdate{Lane: 2, Percent: 64}); err != nil {
		t.Fatalf("apply progress: %v", err)
	}
	if err := s.Apply(wire.LatencyReport{Millis: 37}); err != nil {
		t.Fatalf("apply latency: %v", err)
	}
	if err := s.Apply(wire.SensorStatus{Online: [8]bool{true, true, false, true, true, true, true, true}}); err != nil {
		t.Fatalf("apply sensors: %v", err)
	}
	snap := s.Snapshot()
	if snap.CycleProgress[2] != 64 || snap.LatencyMS != 37 || snap.SensorStatus[2] {
		t.Fatalf("events not applied: %+v", snap)
	}
}

func TestCommitProposalRollsPrevGreen(t *testing.T) {
	testlog.Start(t)
	s := NewStore()
	s.CommitProposal([4]int{35, 25, 25, 25}, 120)
	snap := s.Snapshot()
	if snap.NextGreen != [4]int{35, 25, 25, 25} {
		t.Fatalf("next green = %v", snap.NextGreen)
	}
	if snap.PrevGreen != [4]int{30, 30, 30, 30} {
		t.Fatalf("prev green = %v", snap.PrevGreen)
	}
	if snap.LatencyMS != 120 {
		t.Fatalf("latency = %d", snap.LatencyMS)
	}

	s.CommitProposal([4]int{25, 35, 25, 25}, 90)
	snap = s.Snapshot()
	if snap.PrevGreen != [4]int{35, 25, 25, 25} {
		t.Fatalf("prev green after second commit = %v", snap.PrevGreen)
	}
}

func TestFreshnessThreshold(t *testing.T) {
	testlog.Start(t)
	clock := newFakeClock()
	s := NewStoreWithClock(clock.Now)

	s.Touch()
	if !s.Fresh(5 * time.Second) {
		t.Fatalf("store must be fresh right after touch")
	}
	clock.Advance(4999 * time.Millisecond)
	if !s.Fresh(5 * time.Second) {
		t.Fatalf("store must stay fresh under the threshold")
	}
	clock.Advance(time.Millisecond)
	if s.Fresh(5 * time.Second) {
		t.Fatalf("store must be stale at exactly the threshold")
	}
}

func TestApplyInboundBeaconEvents(t *testing.T) {
	testlog.Start(t)
	s := NewStore()

	if err := s.Apply(wire.PriorityRequest{Lane: 1}); err != nil {
		t.Fatalf("apply priority: %v", err)
	}
	if lane, active := s.BeaconActive(); !active || lane != 1 {
		t.Fatalf("beacon not active for lane 1: lane=%d active=%v", lane, active)
	}

	if err := s.Apply(wire.PriorityRequest{Lane: 9}); err == nil {
		t.Fatalf("out-of-range inbound priority must report an error")
	}
	if lane, _ := s.BeaconActive(); lane != 1 {
		t.Fatalf("rejected activation must not transition: lane=%d", lane)
	}

	if err := s.Apply(wire.BeaconClear{}); err != nil {
		t.Fatalf("apply clear: %v", err)
	}
	if _, active := s.BeaconActive(); active {
		t.Fatalf("beacon must be idle after BEACON_CLEAR")
	}
	// Idle clear from the field side is not an error.
	if err := s.Apply(wire.BeaconClear{}); err != nil {
		t.Fatalf("idle inbound clear: %v", err)
	}
}
