package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"regional-risk-engine/internal/model"
	"regional-risk-engine/internal/stattools"
)

// Aggregator rolls approved case records into per-(region, disease, date)
// daily statistics plus the per-region "ALL" rollup. It owns the count and
// environment-snapshot fields of a stat; score fields are left to the updater.
type Aggregator struct {
	cases CaseRecordSource
	env   EnvironmentSource
	water WaterQualitySource
	stats RegionalStatStore
	log   zerolog.Logger
}

func NewAggregator(cases CaseRecordSource, env EnvironmentSource, water WaterQualitySource, stats RegionalStatStore, log zerolog.Logger) *Aggregator {
	return &Aggregator{cases: cases, env: env, water: water, stats: stats, log: log}
}

// envSnapshot caches one region's latest readings for the duration of a run,
// as pointer-typed set fields (nil when the source has no data).
type envSnapshot struct {
	rainfall *float64
	humidity *float64
	ph       *float64
	tds      *float64
}

// Aggregate merges the day's grouped case counts into the stat store, then
// recomputes the "ALL" rollup per region. Re-running on unchanged input yields
// identical records: every write is an upsert on the (region, disease, date)
// key.
func (a *Aggregator) Aggregate(ctx context.Context, date string) (model.AggregateResult, error) {
	groups, err := a.cases.CountByRegionDisease(ctx, date)
	if err != nil {
		return model.AggregateResult{}, fmt.Errorf("count cases by region and disease: %w", err)
	}

	snapshots := map[string]envSnapshot{}
	regions := map[string]bool{}
	merged := 0

	for _, group := range groups {
		if group.Region == "" {
			// Records without a region key are never aggregated under a
			// placeholder.
			continue
		}
		if err := a.mergeGroup(ctx, date, group, snapshots); err != nil {
			return model.AggregateResult{}, err
		}
		regions[group.Region] = true
		merged++
	}

	totals, err := a.cases.CountByRegion(ctx, date)
	if err != nil {
		return model.AggregateResult{}, fmt.Errorf("count cases by region: %w", err)
	}
	for _, group := range totals {
		if group.Region == "" {
			continue
		}
		group.Disease = model.DiseaseAll
		if err := a.mergeGroup(ctx, date, group, snapshots); err != nil {
			return model.AggregateResult{}, err
		}
	}

	result := model.AggregateResult{Date: date, RegionsUpdated: len(regions), GroupsMerged: merged}
	a.log.Info().
		Str("date", date).
		Int("regions", result.RegionsUpdated).
		Int("groups", result.GroupsMerged).
		Msg("aggregation complete")
	return result, nil
}

func (a *Aggregator) mergeGroup(ctx context.Context, date string, group model.CaseGroup, snapshots map[string]envSnapshot) error {
	snap, err := a.snapshot(ctx, group.Region, snapshots)
	if err != nil {
		return err
	}

	set := model.SetFields{
		TotalCases: lo.ToPtr(group.Count),
		Rainfall:   snap.rainfall,
		Humidity:   snap.humidity,
		PH:         snap.ph,
		TDS:        snap.tds,
	}

	defaults := model.BaselineDefaults()
	defaults.RiskLevel = stattools.RiskLevel(defaults.RiskScore)

	key := model.StatKey{Region: group.Region, Disease: group.Disease, Date: date}
	if err := a.stats.Upsert(ctx, key, model.StatUpdate{Set: set, Defaults: defaults}); err != nil {
		return fmt.Errorf("upsert stat %s/%s/%s: %w", group.Region, group.Disease, date, err)
	}

	a.log.Debug().
		Str("region", group.Region).
		Str("disease", group.Disease).
		Str("date", date).
		Int("total_cases", group.Count).
		Msg("merged case group")
	return nil
}

func (a *Aggregator) snapshot(ctx context.Context, region string, cache map[string]envSnapshot) (envSnapshot, error) {
	if snap, ok := cache[region]; ok {
		return snap, nil
	}

	var snap envSnapshot
	env, err := a.env.LatestEnvironment(ctx, region)
	if err != nil {
		return snap, fmt.Errorf("latest environment for %s: %w", region, err)
	}
	if env != nil {
		snap.rainfall = lo.ToPtr(env.Rainfall)
		snap.humidity = lo.ToPtr(env.Humidity)
	}

	water, err := a.water.LatestWater(ctx, region)
	if err != nil {
		return snap, fmt.Errorf("latest water reading for %s: %w", region, err)
	}
	if water != nil {
		snap.ph = lo.ToPtr(water.PH)
		snap.tds = lo.ToPtr(water.TDS)
	}

	cache[region] = snap
	return snap, nil
}
