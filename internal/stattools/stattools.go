// Package stattools provides the pure statistical helpers behind the risk
// engine: growth rates, threshold anomaly detection, min-max normalization and
// the score-to-tier mapping. Everything here is stateless.
package stattools

import (
	"math"

	"regional-risk-engine/internal/model"
)

// GrowthRate returns the percent change between two daily counts. May be
// negative. A jump from zero counts as +100%.
func GrowthRate(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0.0
		}
		return 100.0
	}
	return float64(current-previous) / float64(previous) * 100
}

// IsAnomaly reports whether current exceeds the historical mean by more than
// stdMultiplier sample standard deviations. Fewer than two history points is a
// normal state, not an error: no anomaly can be claimed. Zero-variance history
// degrades to a plain comparison against the mean.
func IsAnomaly(current float64, history []float64, stdMultiplier float64) bool {
	if len(history) < 2 {
		return false
	}
	m := mean(history)
	return current > m+stdMultiplier*sampleStdDev(history, m)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Normalize rescales value onto 0-100 given an expected range. A collapsed
// range maps everything to the midpoint; out-of-range values clamp.
func Normalize(value, min, max float64) float64 {
	if max == min {
		return 50.0
	}
	normalized := (value - min) / (max - min) * 100
	return math.Max(0, math.Min(100, normalized))
}

// RiskLevel maps a 0-100 score onto its tier. Boundaries are inclusive-lower.
// Every tier derivation in the system goes through this table.
func RiskLevel(score int) model.RiskLevel {
	switch {
	case score >= 76:
		return model.RiskCritical
	case score >= 51:
		return model.RiskHigh
	case score >= 26:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
