package engine

import (
	"math"

	"regional-risk-engine/internal/stattools"
)

// Score weighting and normalization ranges. These are policy constants, not
// tunables: dashboards compare scores produced under the same contract.
const (
	weightGrowth   = 0.5
	weightRainfall = 0.2
	weightHumidity = 0.2
	weightWater    = 0.1

	anomalyBonus = 20

	growthRangeMin   = -50
	growthRangeMax   = 100
	rainfallRangeMax = 200
)

// Score blends growth, weather and water-quality signals into a 0-100 risk
// score. Humidity is already a 0-100 percentage and is not renormalized.
func Score(growthRate, rainfall, humidity float64, waterAnomaly, diseaseAnomaly bool) int {
	normGrowth := stattools.Normalize(growthRate, growthRangeMin, growthRangeMax)
	normRain := stattools.Normalize(rainfall, 0, rainfallRangeMax)

	waterFactor := 0.0
	if waterAnomaly {
		waterFactor = 100
	}

	raw := weightGrowth*normGrowth +
		weightRainfall*normRain +
		weightHumidity*humidity +
		weightWater*waterFactor

	if diseaseAnomaly {
		raw = math.Min(100, raw+anomalyBonus)
	}

	return int(math.Round(math.Max(0, math.Min(100, raw))))
}

// WaterQualityAnomaly reports an out-of-band water reading: pH outside the
// 6.5-8.5 band or TDS above 500.
func WaterQualityAnomaly(ph, tds float64) bool {
	return ph < 6.5 || ph > 8.5 || tds > 500
}
