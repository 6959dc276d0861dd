package engine

import "testing"

func TestScoreAllFactorsMaxed(t *testing.T) {
	if got := Score(100, 200, 100, true, true); got != 100 {
		t.Fatalf("maxed-out score = %d, want 100 (clamped)", got)
	}
}

func TestScoreKnownBlend(t *testing.T) {
	// growth 300 clamps to 100 normalized; rain 120/200 -> 60; humidity 80.
	// 0.5*100 + 0.2*60 + 0.2*80 + 0.1*100 = 88.
	if got := Score(300, 120, 80, true, false); got != 88 {
		t.Fatalf("Score(300, 120, 80, water, no disease anomaly) = %d, want 88", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	first := Score(42.5, 77, 63, false, true)
	for i := 0; i < 5; i++ {
		if got := Score(42.5, 77, 63, false, true); got != first {
			t.Fatalf("score not reproducible: %d then %d", first, got)
		}
	}
}

func TestScoreFloor(t *testing.T) {
	// Strong decline, dry, arid, clean water: every factor bottoms out.
	if got := Score(-50, 0, 0, false, false); got != 0 {
		t.Fatalf("all-minimum score = %d, want 0", got)
	}
}

func TestWaterQualityAnomaly(t *testing.T) {
	cases := []struct {
		ph   float64
		tds  float64
		want bool
	}{
		{7.0, 300, false},
		{6.5, 300, false},
		{8.5, 500, false},
		{6.0, 300, true},
		{9.0, 300, true},
		{7.0, 501, true},
	}
	for _, tc := range cases {
		if got := WaterQualityAnomaly(tc.ph, tc.tds); got != tc.want {
			t.Fatalf("WaterQualityAnomaly(%.1f, %.0f) = %t, want %t", tc.ph, tc.tds, got, tc.want)
		}
	}
}
