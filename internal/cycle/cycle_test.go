package cycle

import "testing"

func TestValidateGreensStaysInRange(t *testing.T) {
	for g := -20; g <= 120; g++ {
		got := ValidateGreens([4]int{g, g, g, g})
		for lane, v := range got {
			if v < GreenMin || v > GreenMax {
				t.Fatalf("green %d lane %d validated to %d, outside [%d,%d]", g, lane, v, GreenMin, GreenMax)
			}
		}
	}
}

func TestDeriveRedCompletesCycleForValidGreens(t *testing.T) {
	for g := GreenMin; g <= GreenMax; g++ {
		green, red := DeriveRed(g)
		if green != g {
			t.Fatalf("valid green %d was adjusted to %d", g, green)
		}
		if red < MinRedTime {
			t.Fatalf("green %d derived red %d below floor %d", g, red, MinRedTime)
		}
		if sum := green + red + 2*YellowTime; sum != Total {
			t.Fatalf("green %d: cycle sum %d, want %d", g, sum, Total)
		}
	}
}

func TestDeriveRedPinnedFloor(t *testing.T) {
	// An unvalidated green of 45 drives red under the floor: red pins
	// at 5, green recomputes to 40 and clamps to 35. Red is not
	// re-derived after that clamp, so the sum lands short of Total.
	green, red := DeriveRed(45)
	if red != MinRedTime {
		t.Fatalf("red = %d, want pinned %d", red, MinRedTime)
	}
	if green != GreenMax {
		t.Fatalf("green = %d, want re-clamped %d", green, GreenMax)
	}
	if sum := green + red + 2*YellowTime; sum == Total {
		t.Fatalf("pinned-floor case unexpectedly sums to Total; the two-step derivation changed")
	}
}

func TestCoerceSecondsFallback(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{30, 30},
		{int64(28), 28},
		{27.9, 27},
		{"31", 31},
		{" 33 ", 33},
		{"fast", FallbackGreen},
		{nil, FallbackGreen},
		{[]int{1}, FallbackGreen},
	}
	for _, tc := range cases {
		if got := CoerceSeconds(tc.in); got != tc.want {
			t.Fatalf("CoerceSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPriorityAllocation(t *testing.T) {
	got := PriorityAllocation(2)
	want := [4]int{GreenMin, GreenMin, GreenMax, GreenMin}
	if got != want {
		t.Fatalf("PriorityAllocation(2) = %v, want %v", got, want)
	}
}

func TestSecondsFromFraction(t *testing.T) {
	cases := []struct {
		f    float64
		want int
	}{
		{0.0, GreenMin},
		{1.0, GreenMax},
		{0.5, GreenMin + (GreenMax-GreenMin)/2},
		{-3.0, GreenMin},
		{2.5, GreenMax},
	}
	for _, tc := range cases {
		if got := SecondsFromFraction(tc.f); got != tc.want {
			t.Fatalf("SecondsFromFraction(%v) = %d, want %d", tc.f, got, tc.want)
		}
	}
}

func TestPhaseDurations(t *testing.T) {
	got := PhaseDurations(30)
	want := [4]int{30, YellowTime, 15, YellowTime}
	if got != want {
		t.Fatalf("PhaseDurations(30) = %v, want %v", got, want)
	}
}
