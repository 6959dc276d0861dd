package engine

import (
	"context"

	"github.com/rs/zerolog"

	"regional-risk-engine/internal/model"
)

// Runner drives the scoring stage across a configured region set.
type Runner struct {
	updater *RegionalUpdater
	log     zerolog.Logger
}

func NewRunner(updater *RegionalUpdater, log zerolog.Logger) *Runner {
	return &Runner{updater: updater, log: log}
}

// RunResult reports what one engine pass accomplished. Fewer summaries than
// regions requested is the only user-visible sign of per-region failures.
type RunResult struct {
	Summaries []model.RegionSummary
	Processed int
	Skipped   int
	Failed    int
}

// Run updates every region in input order. A failure in one region is logged
// with its region context and does not stop the remaining regions; regions
// with no data yet are skipped.
func (r *Runner) Run(ctx context.Context, regions []string, today string) RunResult {
	var result RunResult
	for _, region := range regions {
		summary, err := r.updater.Update(ctx, region, today)
		if err != nil {
			r.log.Error().Err(err).Str("region", region).Str("date", today).Msg("region update failed")
			result.Failed++
			continue
		}
		if summary == nil {
			r.log.Debug().Str("region", region).Str("date", today).Msg("no stats for region, skipping")
			result.Skipped++
			continue
		}
		result.Summaries = append(result.Summaries, *summary)
		result.Processed++
	}
	return result
}
