// Package engine implements the risk aggregation and scoring pipeline: the
// aggregator that rolls case records into daily regional statistics, the
// scorer that blends growth and environmental signals into a 0-100 risk
// score, the per-region updater, and the runner that drives a whole pass.
package engine

import (
	"context"

	"regional-risk-engine/internal/model"
)

// CaseRecordSource exposes grouped counting over the external case-record
// store. Only approved records are counted; the engine never sees raw rows.
type CaseRecordSource interface {
	// CountByRegionDisease groups the date's approved records by
	// (region, disease).
	CountByRegionDisease(ctx context.Context, date string) ([]model.CaseGroup, error)
	// CountByRegion groups by region alone, feeding the "ALL" rollup.
	CountByRegion(ctx context.Context, date string) ([]model.CaseGroup, error)
}

// EnvironmentSource returns the latest known weather reading for a region.
// A nil reading means no data yet; callers fall back to documented defaults.
type EnvironmentSource interface {
	LatestEnvironment(ctx context.Context, region string) (*model.EnvReading, error)
}

// WaterQualitySource returns the latest known water reading for a region, or
// nil when none exists.
type WaterQualitySource interface {
	LatestWater(ctx context.Context, region string) (*model.WaterReading, error)
}

// RegionalStatStore persists RegionalStat records. Upsert must be atomic per
// key: create with defaults when absent, otherwise apply only the listed set
// fields.
type RegionalStatStore interface {
	Upsert(ctx context.Context, key model.StatKey, update model.StatUpdate) error
	// Get returns the stat for the key, or nil when absent.
	Get(ctx context.Context, key model.StatKey) (*model.RegionalStat, error)
	// RecentByRegion returns up to limit stats for (region, disease) dated
	// strictly before the given date, ordered by date descending. The bound
	// keeps back-dated scoring runs from reading rows newer than the run date.
	RecentByRegion(ctx context.Context, region, disease, before string, limit int) ([]model.RegionalStat, error)
}

// AlertSink receives alert-trigger signals. Delivery is fire-and-forget from
// the engine's perspective.
type AlertSink interface {
	Notify(ctx context.Context, signal model.AlertSignal) error
}
