package cycle

import (
	"strconv"
	"strings"

	"github.com/signalmesh/trafficctl/internal/junction"
)

// Cycle timing constants. The field controller firmware executes these
// exact values; they must not drift between components.
const (
	Total         = 55
	YellowTime    = 5
	GreenMin      = 25
	GreenMax      = 35
	MinRedTime    = 5
	FallbackGreen = 30
)

// ClampGreen bounds one green duration to the firmware-accepted range.
func ClampGreen(g int) int {
	if g < GreenMin {
		return GreenMin
	}
	if g > GreenMax {
		return GreenMax
	}
	return g
}

// CoerceSeconds converts an untyped request value to whole seconds,
// substituting FallbackGreen when the value is not numeric. Fractions
// are truncated to match firmware expectations.
func CoerceSeconds(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case float32:
		return int(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return FallbackGreen
		}
		return int(f)
	default:
		return FallbackGreen
	}
}

// ValidateGreens clamps all four requested green durations.
func ValidateGreens(req [junction.Count]int) [junction.Count]int {
	var out [junction.Count]int
	for i, g := range req {
		out[i] = ClampGreen(g)
	}
	return out
}

// DeriveRed computes the red duration completing one fixed-total cycle
// for a green duration, returning the possibly adjusted green alongside.
//
// When the derived red falls under the floor, red is pinned at
// MinRedTime, green is recomputed from the remainder and clamped once
// more. The pinned red is intentionally not re-derived after that
// second clamp; the firmware depends on this exact two-step rounding,
// so in the pinned edge case the four durations may sum slightly off
// Total.
func DeriveRed(green int) (int, int) {
	red := Total - green - 2*YellowTime
	if red < MinRedTime {
		red = MinRedTime
		green = ClampGreen(Total - red - 2*YellowTime)
	}
	return green, red
}

// PhaseDurations expands a green duration into the four executed phase
// durations {green, yellow, red, yellow}.
func PhaseDurations(green int) [4]int {
	g, red := DeriveRed(ClampGreen(green))
	return [4]int{g, YellowTime, red, YellowTime}
}

// PriorityAllocation is the full beacon override: the priority lane
// gets the maximum green, every other lane the minimum.
func PriorityAllocation(lane int) [junction.Count]int {
	var out [junction.Count]int
	for i := range out {
		out[i] = GreenMin
	}
	if junction.ValidLane(lane) {
		out[lane] = GreenMax
	}
	return out
}

// SecondsFromFraction maps a policy action fraction onto the green
// range. Fractions outside [0,1] are clipped first.
func SecondsFromFraction(f float64) int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return GreenMin + int(f*float64(GreenMax-GreenMin))
}
