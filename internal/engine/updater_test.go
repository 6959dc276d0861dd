package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"regional-risk-engine/internal/model"
	"regional-risk-engine/internal/store"
)

type captureSink struct {
	signals []model.AlertSignal
}

func (c *captureSink) Notify(ctx context.Context, signal model.AlertSignal) error {
	c.signals = append(c.signals, signal)
	return nil
}

func upsertTotal(t *testing.T, mem *store.MemoryStore, region, date string, total int) {
	t.Helper()
	key := model.StatKey{Region: region, Disease: model.DiseaseAll, Date: date}
	update := model.StatUpdate{
		Set:      model.SetFields{TotalCases: lo.ToPtr(total)},
		Defaults: model.BaselineDefaults(),
	}
	if err := mem.Upsert(context.Background(), key, update); err != nil {
		t.Fatalf("upsert %s/%s: %v", region, date, err)
	}
}

func TestUpdateEndToEnd(t *testing.T) {
	mem := store.NewMemoryStore()
	upsertTotal(t, mem, "R1", "2026-03-09", 2)
	upsertTotal(t, mem, "R1", "2026-03-10", 8)
	mem.SetEnvironment(model.EnvReading{Region: "R1", Date: "2026-03-10", Rainfall: 120, Humidity: 80})
	mem.SetWater(model.WaterReading{Region: "R1", Date: "2026-03-10", PH: 6.0, TDS: 600})

	sink := &captureSink{}
	updater := NewRegionalUpdater(mem, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())

	summary, err := updater.Update(context.Background(), "R1", "2026-03-10")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary for R1")
	}
	if !floatEqual(summary.GrowthRate, 300.0) {
		t.Fatalf("growth rate = %.1f, want 300.0", summary.GrowthRate)
	}
	if summary.IsAnomaly {
		t.Fatal("one history point must not flag an anomaly")
	}
	if summary.RiskScore != 88 {
		t.Fatalf("risk score = %d, want 88", summary.RiskScore)
	}
	if summary.RiskLevel != model.RiskCritical {
		t.Fatalf("risk level = %s, want critical", summary.RiskLevel)
	}
	if summary.TotalCases != 8 {
		t.Fatalf("summary total = %d, want 8", summary.TotalCases)
	}

	stat, err := mem.Get(context.Background(), model.StatKey{Region: "R1", Disease: model.DiseaseAll, Date: "2026-03-10"})
	if err != nil || stat == nil {
		t.Fatalf("missing updated stat: %v", err)
	}
	if stat.RiskScore != 88 || stat.RiskLevel != model.RiskCritical {
		t.Fatalf("persisted score = %d/%s, want 88/critical", stat.RiskScore, stat.RiskLevel)
	}
	if stat.TotalCases != 8 {
		t.Fatalf("score merge touched total_cases: %d", stat.TotalCases)
	}
	if !floatEqual(stat.Rainfall, 120) || !floatEqual(stat.Humidity, 80) {
		t.Fatalf("environment snapshot not merged: %.0f/%.0f", stat.Rainfall, stat.Humidity)
	}

	if len(sink.signals) != 1 {
		t.Fatalf("expected one alert signal, got %d", len(sink.signals))
	}
	signal := sink.signals[0]
	if signal.Region != "R1" || signal.RiskScore != 88 || signal.RiskLevel != model.RiskCritical {
		t.Fatalf("unexpected alert signal: %+v", signal)
	}
}

func TestUpdateNoDataSkips(t *testing.T) {
	mem := store.NewMemoryStore()
	sink := &captureSink{}
	updater := NewRegionalUpdater(mem, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())

	summary, err := updater.Update(context.Background(), "ghost", "2026-03-10")
	if err != nil {
		t.Fatalf("no-data update must not error: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary, got %+v", summary)
	}
	if len(sink.signals) != 0 {
		t.Fatal("no alert may fire for a skipped region")
	}
}

func TestUpdateMissingReadingsUseDefaults(t *testing.T) {
	mem := store.NewMemoryStore()
	upsertTotal(t, mem, "R1", "2026-03-09", 4)
	upsertTotal(t, mem, "R1", "2026-03-10", 4)

	sink := &captureSink{}
	updater := NewRegionalUpdater(mem, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())

	summary, err := updater.Update(context.Background(), "R1", "2026-03-10")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// Flat counts, rainfall 0, humidity default 50, clean default water:
	// 0.5*33.33 + 0 + 0.2*50 + 0 = 26.67 -> 27, medium.
	if summary.RiskScore != 27 {
		t.Fatalf("default-readings score = %d, want 27", summary.RiskScore)
	}
	if summary.RiskLevel != model.RiskMedium {
		t.Fatalf("risk level = %s, want medium", summary.RiskLevel)
	}
	if len(sink.signals) != 0 {
		t.Fatal("no alert expected below threshold without anomaly")
	}
}

func TestUpdateAnomalyAloneTriggersAlert(t *testing.T) {
	mem := store.NewMemoryStore()
	// Six quiet days, then yesterday and today both elevated: growth is flat
	// but today's count sits far above the trailing mean.
	for _, date := range []string{"2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08"} {
		upsertTotal(t, mem, "R1", date, 1)
	}
	upsertTotal(t, mem, "R1", "2026-03-09", 3)
	upsertTotal(t, mem, "R1", "2026-03-10", 3)

	sink := &captureSink{}
	updater := NewRegionalUpdater(mem, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())

	summary, err := updater.Update(context.Background(), "R1", "2026-03-10")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !summary.IsAnomaly {
		t.Fatal("expected a disease anomaly")
	}
	if summary.RiskScore >= 75 {
		t.Fatalf("test wants a sub-threshold score, got %d", summary.RiskScore)
	}
	if len(sink.signals) != 1 {
		t.Fatalf("anomaly alone must trigger an alert, got %d signals", len(sink.signals))
	}
	if !sink.signals[0].IsAnomaly {
		t.Fatal("alert signal must carry the anomaly flag")
	}
}

func TestUpdateBackDatedRunIgnoresNewerStats(t *testing.T) {
	mem := store.NewMemoryStore()
	// A flat run of 4 cases every day, including days after the run date.
	for _, date := range []string{
		"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05",
		"2026-03-06", "2026-03-07", "2026-03-08", "2026-03-09", "2026-03-10", "2026-03-11",
	} {
		upsertTotal(t, mem, "R1", date, 4)
	}

	sink := &captureSink{}
	updater := NewRegionalUpdater(mem, mem, mem, sink, DefaultUpdaterConfig(), zerolog.Nop())

	// Re-scoring a past date must read yesterday's real count, not have it
	// crowded out of the lookback query by newer rows.
	summary, err := updater.Update(context.Background(), "R1", "2026-03-03")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !floatEqual(summary.GrowthRate, 0.0) {
		t.Fatalf("growth rate = %.1f, want 0 (flat counts either side of the run date)", summary.GrowthRate)
	}
	if summary.IsAnomaly {
		t.Fatal("flat history must not flag an anomaly")
	}
	if len(sink.signals) != 0 {
		t.Fatal("back-dated flat run must not raise an alert")
	}
}

func floatEqual(a float64, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}
