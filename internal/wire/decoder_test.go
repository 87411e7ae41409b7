package wire

import (
	"reflect"
	"testing"
)

func TestFeedSplitsAndBuffersPartialLines(t *testing.T) {
	var d Decoder
	lines := d.Feed([]byte("LATENCY:12\nDENS"))
	if len(lines) != 1 || lines[0] != "LATENCY:12" {
		t.Fatalf("unexpected lines: %v", lines)
	}
	lines = d.Feed([]byte("ITIES:1,2,3,4,5,6,7,8\n\n  \nBEACON_CLEAR\n"))
	want := []string{"DENSITIES:1,2,3,4,5,6,7,8", "BEACON_CLEAR"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
}

func TestDecodeDensitiesInterleaved(t *testing.T) {
	ev, ok := DecodeLine("DENSITIES:1,2,3,4,5,6,7,8")
	if !ok {
		t.Fatalf("expected decode success")
	}
	du, isDensity := ev.(DensityUpdate)
	if !isDensity {
		t.Fatalf("expected DensityUpdate, got %T", ev)
	}
	if du.Before != [4]int{1, 3, 5, 7} || du.After != [4]int{2, 4, 6, 8} {
		t.Fatalf("unexpected interleave: before=%v after=%v", du.Before, du.After)
	}
}

func TestDecodeDensitiesShortPayloadDropped(t *testing.T) {
	if _, ok := DecodeLine("DENSITIES:1,2,3,4,5"); ok {
		t.Fatalf("5-field DENSITIES must be dropped")
	}
	if _, ok := DecodeLine("DENSITIES:1,2,3,x,5,6,7,8"); ok {
		t.Fatalf("non-numeric DENSITIES must be dropped")
	}
}

func TestDecodeCycleObservation(t *testing.T) {
	ev, ok := DecodeLine("CYCLE_OBS:1712000000:10,11,0,20,21,0,30,31,0,40,41,0")
	if !ok {
		t.Fatalf("expected decode success")
	}
	obs := ev.(CycleObservation)
	if obs.Timestamp != 1712000000 {
		t.Fatalf("timestamp = %d", obs.Timestamp)
	}
	if obs.Before != [4]int{10, 20, 30, 40} || obs.After != [4]int{11, 21, 31, 41} {
		t.Fatalf("unexpected lanes: before=%v after=%v", obs.Before, obs.After)
	}
}

func TestDecodeCycleObservationMalformedSwallowed(t *testing.T) {
	malformed := []string{
		"CYCLE_OBS:notatime:1,2,3,4,5,6,7,8,9,10,11,12",
		"CYCLE_OBS:1712000000:1,2,3",
		"CYCLE_OBS:1712000000",
	}
	for _, line := range malformed {
		if _, ok := DecodeLine(line); ok {
			t.Fatalf("expected drop for %q", line)
		}
	}
}

func TestDecodePriority(t *testing.T) {
	ev, ok := DecodeLine("PRIORITY:2")
	if !ok {
		t.Fatalf("expected decode success")
	}
	if pr := ev.(PriorityRequest); pr.Lane != 2 {
		t.Fatalf("lane = %d", pr.Lane)
	}
	if _, ok := DecodeLine("PRIORITY:north"); ok {
		t.Fatalf("non-numeric PRIORITY must be dropped")
	}
}

func TestDecodeAppliedCycleRequiresExactly16(t *testing.T) {
	ev, ok := DecodeLine("APPLIED_CYCLE:30,5,15,5,25,5,20,5,35,5,10,5,30,5,15,5")
	if !ok {
		t.Fatalf("expected decode success")
	}
	ac := ev.(AppliedCycle)
	if ac.Times[1] != [4]int{25, 5, 20, 5} {
		t.Fatalf("lane 1 times = %v", ac.Times[1])
	}
	if _, ok := DecodeLine("APPLIED_CYCLE:30,5,15,5,25,5,20,5,35,5,10,5,30,5,15"); ok {
		t.Fatalf("15-field APPLIED_CYCLE must be dropped")
	}
}

func TestDecodeProgress(t *testing.T) {
	ev, ok := DecodeLine("PROGRESS:3:76")
	if !ok {
		t.Fatalf("expected decode success")
	}
	p := ev.(ProgressUpdate)
	if p.Lane != 3 || p.Percent != 76 {
		t.Fatalf("progress = %+v", p)
	}
	if _, ok := DecodeLine("PROGRESS:7:50"); ok {
		t.Fatalf("out-of-range lane must be dropped")
	}
	if _, ok := DecodeLine("PROGRESS:1"); ok {
		t.Fatalf("missing percent must be dropped")
	}
}

func TestDecodeSensorStatusCoercion(t *testing.T) {
	ev, ok := DecodeLine("SENSOR_STATUS:1,0,1,1,0,1,2,1")
	if !ok {
		t.Fatalf("expected decode success")
	}
	ss := ev.(SensorStatus)
	want := [8]bool{true, false, true, true, false, true, true, true}
	if ss.Online != want {
		t.Fatalf("online = %v, want %v", ss.Online, want)
	}
	if _, ok := DecodeLine("SENSOR_STATUS:1,0,1"); ok {
		t.Fatalf("3-field SENSOR_STATUS must be dropped")
	}
}

func TestDecodeBareTagsAndUnknown(t *testing.T) {
	if _, ok := DecodeLine("BEACON_CLEAR"); !ok {
		t.Fatalf("BEACON_CLEAR must decode")
	}
	if _, ok := DecodeLine("BEACON_EXTENDED"); !ok {
		t.Fatalf("BEACON_EXTENDED must decode")
	}
	if _, ok := DecodeLine("TELEMETRY:1,2,3"); ok {
		t.Fatalf("unknown tag must be dropped")
	}
}

func TestOutboundCommands(t *testing.T) {
	if got := string(PriorityCommand(1)); got != "PRIORITY:1\n" {
		t.Fatalf("priority command = %q", got)
	}
	if got := string(NextGreenCommand([4]int{35, 25, 25, 25})); got != "NEXT_GREEN:35,25,25,25\n" {
		t.Fatalf("next green command = %q", got)
	}
	if got := string(ExtendBeaconCommand()); got != "EXTEND_BEACON\n" {
		t.Fatalf("extend command = %q", got)
	}
}
