package stattools

import (
	"testing"

	"regional-risk-engine/internal/model"
)

func TestGrowthRate(t *testing.T) {
	cases := []struct {
		current  int
		previous int
		want     float64
	}{
		{0, 0, 0.0},
		{5, 0, 100.0},
		{150, 100, 50.0},
		{50, 100, -50.0},
		{8, 2, 300.0},
	}
	for _, tc := range cases {
		got := GrowthRate(tc.current, tc.previous)
		if !floatEqual(got, tc.want) {
			t.Fatalf("GrowthRate(%d, %d) = %.2f, want %.2f", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestNormalizeCollapsedRange(t *testing.T) {
	for _, value := range []float64{-10, 0, 42, 1000} {
		if got := Normalize(value, 7, 7); !floatEqual(got, 50.0) {
			t.Fatalf("Normalize(%.0f, 7, 7) = %.2f, want 50", value, got)
		}
	}
}

func TestNormalizeClamps(t *testing.T) {
	if got := Normalize(-999, 0, 200); !floatEqual(got, 0.0) {
		t.Fatalf("expected low clamp to 0, got %.2f", got)
	}
	if got := Normalize(999, 0, 200); !floatEqual(got, 100.0) {
		t.Fatalf("expected high clamp to 100, got %.2f", got)
	}
	if got := Normalize(100, 0, 200); !floatEqual(got, 50.0) {
		t.Fatalf("expected midpoint 50, got %.2f", got)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{25, model.RiskLow},
		{26, model.RiskMedium},
		{50, model.RiskMedium},
		{51, model.RiskHigh},
		{75, model.RiskHigh},
		{76, model.RiskCritical},
		{100, model.RiskCritical},
	}
	for _, tc := range cases {
		if got := RiskLevel(tc.score); got != tc.want {
			t.Fatalf("RiskLevel(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestIsAnomalyInsufficientHistory(t *testing.T) {
	if IsAnomaly(100, nil, 2.0) {
		t.Fatal("empty history must never be anomalous")
	}
	if IsAnomaly(100, []float64{1}, 2.0) {
		t.Fatal("single-point history must never be anomalous")
	}
}

func TestIsAnomalyZeroVariance(t *testing.T) {
	flat := []float64{1, 1, 1, 1}
	if !IsAnomaly(10, flat, 2.0) {
		t.Fatal("10 against a flat history of 1s should be anomalous")
	}
	if IsAnomaly(1, flat, 2.0) {
		t.Fatal("the mean itself should never be anomalous")
	}
}

func TestIsAnomalySpread(t *testing.T) {
	history := []float64{10, 12, 11, 13}
	if !IsAnomaly(30, history, 2.0) {
		t.Fatal("30 should exceed mean + 2 stdev of [10 12 11 13]")
	}
	if IsAnomaly(13, history, 2.0) {
		t.Fatal("13 is within 2 stdev of the mean")
	}
}

func floatEqual(a float64, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}
