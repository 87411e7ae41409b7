package wire

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/signalmesh/trafficctl/internal/junction"
)

// Line-protocol tags accepted from the field controller.
const (
	tagDensities      = "DENSITIES:"
	tagCycleObs       = "CYCLE_OBS:"
	tagPriority       = "PRIORITY:"
	tagAppliedCycle   = "APPLIED_CYCLE:"
	tagProgress       = "PROGRESS:"
	tagLatency        = "LATENCY:"
	tagBeaconClear    = "BEACON_CLEAR"
	tagBeaconExtended = "BEACON_EXTENDED"
	tagSensorStatus   = "SENSOR_STATUS:"
)

// Decoder accumulates raw bytes from the link and splits out complete
// newline-terminated lines. It never fails: malformed input is dropped
// line by line and the stream continues.
type Decoder struct {
	buf []byte
}

// Feed appends raw bytes and returns every complete non-blank line now
// available. Partial trailing data stays buffered for the next read.
func (d *Decoder) Feed(p []byte) []string {
	d.buf = append(d.buf, p...)
	var lines []string
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return lines
		}
		line := strings.TrimSpace(string(d.buf[:idx]))
		d.buf = d.buf[idx+1:]
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
}

// Reset discards buffered partial data after a link failure.
func (d *Decoder) Reset() {
	d.buf = nil
}

// DecodeLine maps one trimmed line to its typed event. The second
// return is false for unrecognized tags and malformed payloads; the
// caller still counts the line as link activity.
func DecodeLine(line string) (Event, bool) {
	switch {
	case line == tagBeaconClear:
		return BeaconClear{}, true
	case line == tagBeaconExtended:
		return BeaconExtended{}, true
	case strings.HasPrefix(line, tagDensities):
		return decodeDensities(line[len(tagDensities):])
	case strings.HasPrefix(line, tagCycleObs):
		return decodeCycleObs(line[len(tagCycleObs):])
	case strings.HasPrefix(line, tagPriority):
		lane, err := strconv.Atoi(strings.TrimSpace(line[len(tagPriority):]))
		if err != nil {
			return nil, false
		}
		return PriorityRequest{Lane: lane}, true
	case strings.HasPrefix(line, tagAppliedCycle):
		return decodeAppliedCycle(line[len(tagAppliedCycle):])
	case strings.HasPrefix(line, tagProgress):
		return decodeProgress(line[len(tagProgress):])
	case strings.HasPrefix(line, tagLatency):
		ms, err := strconv.Atoi(strings.TrimSpace(line[len(tagLatency):]))
		if err != nil {
			return nil, false
		}
		return LatencyReport{Millis: ms}, true
	case strings.HasPrefix(line, tagSensorStatus):
		return decodeSensorStatus(line[len(tagSensorStatus):])
	default:
		return nil, false
	}
}

func decodeDensities(payload string) (Event, bool) {
	values, ok := splitInts(payload, 2*junction.Count)
	if !ok {
		return nil, false
	}
	var ev DensityUpdate
	for i := 0; i < junction.Count; i++ {
		ev.Before[i] = values[2*i]
		ev.After[i] = values[2*i+1]
	}
	return ev, true
}

func decodeCycleObs(payload string) (Event, bool) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return nil, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return nil, false
	}
	// Three values per lane: before, after, and a reserved slot.
	values, ok := splitInts(parts[1], 3*junction.Count)
	if !ok {
		return nil, false
	}
	ev := CycleObservation{Timestamp: ts}
	for i := 0; i < junction.Count; i++ {
		ev.Before[i] = values[3*i]
		ev.After[i] = values[3*i+1]
	}
	return ev, true
}

func decodeAppliedCycle(payload string) (Event, bool) {
	values, ok := splitIntsExact(payload, 4*junction.Count)
	if !ok {
		return nil, false
	}
	var ev AppliedCycle
	for lane := 0; lane < junction.Count; lane++ {
		for phase := 0; phase < 4; phase++ {
			ev.Times[lane][phase] = values[4*lane+phase]
		}
	}
	return ev, true
}

func decodeProgress(payload string) (Event, bool) {
	parts := strings.Split(payload, ":")
	if len(parts) != 2 {
		return nil, false
	}
	lane, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, false
	}
	percent, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	if !junction.ValidLane(lane) {
		return nil, false
	}
	return ProgressUpdate{Lane: lane, Percent: percent}, true
}

func decodeSensorStatus(payload string) (Event, bool) {
	values, ok := splitIntsExact(payload, 2*junction.Count)
	if !ok {
		return nil, false
	}
	var ev SensorStatus
	for i, v := range values {
		ev.Online[i] = v != 0
	}
	return ev, true
}

// splitInts parses a comma-separated payload requiring at least min
// fields; extra trailing fields are ignored.
func splitInts(payload string, min int) ([]int, bool) {
	fields := strings.Split(payload, ",")
	if len(fields) < min {
		return nil, false
	}
	out := make([]int, min)
	for i := 0; i < min; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// splitIntsExact parses a comma-separated payload requiring exactly n
// fields.
func splitIntsExact(payload string, n int) ([]int, bool) {
	fields := strings.Split(payload, ",")
	if len(fields) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
