package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"regional-risk-engine/internal/model"
	"regional-risk-engine/internal/stattools"
)

// Fallbacks used when a region has no environmental or water reading yet.
const (
	defaultRainfall = 0.0
	defaultHumidity = 50.0
	defaultPH       = 7.0
	defaultTDS      = 300.0
)

// UpdaterConfig carries the deployment knobs of the scoring stage. The
// lookback window and region set are configuration, not constants.
type UpdaterConfig struct {
	LookbackDays   int
	StdMultiplier  float64
	AlertThreshold int
}

func DefaultUpdaterConfig() UpdaterConfig {
	return UpdaterConfig{LookbackDays: 7, StdMultiplier: 2.0, AlertThreshold: 75}
}

// RegionalUpdater recomputes the score fields of one region's daily stat and
// raises an alert signal when thresholds are crossed.
type RegionalUpdater struct {
	stats RegionalStatStore
	env   EnvironmentSource
	water WaterQualitySource
	sink  AlertSink
	cfg   UpdaterConfig
	log   zerolog.Logger
}

func NewRegionalUpdater(stats RegionalStatStore, env EnvironmentSource, water WaterQualitySource, sink AlertSink, cfg UpdaterConfig, log zerolog.Logger) *RegionalUpdater {
	defaults := DefaultUpdaterConfig()
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaults.LookbackDays
	}
	if cfg.StdMultiplier <= 0 {
		cfg.StdMultiplier = defaults.StdMultiplier
	}
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = defaults.AlertThreshold
	}
	return &RegionalUpdater{stats: stats, env: env, water: water, sink: sink, cfg: cfg, log: log}
}

// Update refreshes one region for the given day (caller-supplied, for
// testability). A nil summary with a nil error means the region has no data
// yet; that is a skip, not a failure.
func (u *RegionalUpdater) Update(ctx context.Context, region, today string) (*model.RegionSummary, error) {
	key := model.StatKey{Region: region, Disease: model.DiseaseAll, Date: today}
	todayStat, err := u.stats.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get today's stat for %s: %w", region, err)
	}
	if todayStat == nil {
		return nil, nil
	}
	todayCases := todayStat.TotalCases

	// Bounded to dates before today so a back-dated run never reads rows
	// newer than the run date.
	recent, err := u.stats.RecentByRegion(ctx, region, model.DiseaseAll, today, u.cfg.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("recent stats for %s: %w", region, err)
	}

	yesterday := shiftDate(today, -1)
	windowStart := shiftDate(today, -u.cfg.LookbackDays)

	// Missing days are skipped, never zero-filled: too-sparse history falls
	// under the n<2 "no anomaly" rule.
	yesterdayCases := 0
	var history []float64
	for _, stat := range recent {
		if stat.Date == yesterday {
			yesterdayCases = stat.TotalCases
		}
		if stat.Date >= windowStart {
			history = append(history, float64(stat.TotalCases))
		}
	}

	growth := stattools.GrowthRate(todayCases, yesterdayCases)
	anomaly := stattools.IsAnomaly(float64(todayCases), history, u.cfg.StdMultiplier)

	rainfall, humidity := defaultRainfall, defaultHumidity
	if env, err := u.env.LatestEnvironment(ctx, region); err != nil {
		return nil, fmt.Errorf("latest environment for %s: %w", region, err)
	} else if env != nil {
		rainfall, humidity = env.Rainfall, env.Humidity
	}

	ph, tds := defaultPH, defaultTDS
	if water, err := u.water.LatestWater(ctx, region); err != nil {
		return nil, fmt.Errorf("latest water reading for %s: %w", region, err)
	} else if water != nil {
		ph, tds = water.PH, water.TDS
	}
	waterAnomaly := WaterQualityAnomaly(ph, tds)

	score := Score(growth, rainfall, humidity, waterAnomaly, anomaly)
	level := stattools.RiskLevel(score)

	// Score-field merge only: total_cases stays whatever the aggregator wrote.
	update := model.StatUpdate{
		Set: model.SetFields{
			RiskScore:  lo.ToPtr(score),
			RiskLevel:  lo.ToPtr(level),
			GrowthRate: lo.ToPtr(growth),
			IsAnomaly:  lo.ToPtr(anomaly),
			Rainfall:   lo.ToPtr(rainfall),
			Humidity:   lo.ToPtr(humidity),
		},
		Defaults: model.BaselineDefaults(),
	}
	if err := u.stats.Upsert(ctx, key, update); err != nil {
		return nil, fmt.Errorf("merge score fields for %s: %w", region, err)
	}

	if score >= u.cfg.AlertThreshold || anomaly {
		signal := model.AlertSignal{Region: region, RiskScore: score, RiskLevel: level, IsAnomaly: anomaly}
		if err := u.sink.Notify(ctx, signal); err != nil {
			// Fire-and-forget: a sink failure never fails the region.
			u.log.Warn().Err(err).Str("region", region).Msg("alert sink notify failed")
		}
	}

	u.log.Info().
		Str("region", region).
		Str("date", today).
		Int("risk_score", score).
		Str("risk_level", string(level)).
		Float64("growth_rate", growth).
		Bool("is_anomaly", anomaly).
		Msg("region updated")

	return &model.RegionSummary{
		Region:     region,
		RiskScore:  score,
		RiskLevel:  level,
		TotalCases: todayCases,
		GrowthRate: growth,
		IsAnomaly:  anomaly,
	}, nil
}

// shiftDate moves a YYYY-MM-DD calendar key by a number of days. An invalid
// key shifts to the empty string, which no stored date ever matches.
func shiftDate(date string, days int) string {
	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ""
	}
	return parsed.AddDate(0, 0, days).Format(model.DateLayout)
}
