package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"regional-risk-engine/internal/model"
	"regional-risk-engine/internal/store"
)

// failingStatStore injects a store failure for one region.
type failingStatStore struct {
	inner      RegionalStatStore
	failRegion string
}

func (f *failingStatStore) Upsert(ctx context.Context, key model.StatKey, update model.StatUpdate) error {
	if key.Region == f.failRegion {
		return errors.New("connection reset")
	}
	return f.inner.Upsert(ctx, key, update)
}

func (f *failingStatStore) Get(ctx context.Context, key model.StatKey) (*model.RegionalStat, error) {
	if key.Region == f.failRegion {
		return nil, errors.New("connection reset")
	}
	return f.inner.Get(ctx, key)
}

func (f *failingStatStore) RecentByRegion(ctx context.Context, region, disease, before string, limit int) ([]model.RegionalStat, error) {
	if region == f.failRegion {
		return nil, errors.New("connection reset")
	}
	return f.inner.RecentByRegion(ctx, region, disease, before, limit)
}

func TestRunContinuesPastFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	upsertTotal(t, mem, "r1", "2026-03-10", 3)
	upsertTotal(t, mem, "r2", "2026-03-10", 5)
	upsertTotal(t, mem, "bad", "2026-03-10", 9)

	stats := &failingStatStore{inner: mem, failRegion: "bad"}
	sink := &captureSink{}
	updater := NewRegionalUpdater(stats, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())
	runner := NewRunner(updater, zerolog.Nop())

	result := runner.Run(context.Background(), []string{"r1", "bad", "r2", "quiet"}, "2026-03-10")

	if result.Processed != 2 || result.Failed != 1 || result.Skipped != 1 {
		t.Fatalf("processed/failed/skipped = %d/%d/%d, want 2/1/1",
			result.Processed, result.Failed, result.Skipped)
	}
	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(result.Summaries))
	}
	if result.Summaries[0].Region != "r1" || result.Summaries[1].Region != "r2" {
		t.Fatalf("summaries out of input order: %s, %s",
			result.Summaries[0].Region, result.Summaries[1].Region)
	}
}

func TestRunEmptyRegionList(t *testing.T) {
	mem := store.NewMemoryStore()
	updater := NewRegionalUpdater(mem, mem, mem, &captureSink{}, DefaultUpdaterConfig(), zerolog.Nop())
	runner := NewRunner(updater, zerolog.Nop())

	result := runner.Run(context.Background(), nil, "2026-03-10")
	if result.Processed != 0 || len(result.Summaries) != 0 {
		t.Fatalf("empty region list produced results: %+v", result)
	}
}
