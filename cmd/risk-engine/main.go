package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"regional-risk-engine/internal/alert"
	"regional-risk-engine/internal/config"
	"regional-risk-engine/internal/engine"
	"regional-risk-engine/internal/model"
	"regional-risk-engine/internal/store"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:          "risk-engine",
		Short:        "Regional health risk aggregation and scoring engine",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(aggregateCmd(logger))
	rootCmd.AddCommand(runCmd(logger))
	rootCmd.AddCommand(initDBCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func aggregateCmd(logger zerolog.Logger) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Roll approved case records into regional daily statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			target, err := resolveDate(date)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pg, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			aggregator := engine.NewAggregator(pg, pg, pg, pg, logger)
			result, err := aggregator.Aggregate(ctx, target)
			if err != nil {
				return err
			}

			fmt.Printf("Aggregation complete for %s. Updated %d regions (%d groups).\n",
				result.Date, result.RegionsUpdated, result.GroupsMerged)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to aggregate (YYYY-MM-DD), defaults to today")
	return cmd
}

func runCmd(logger zerolog.Logger) *cobra.Command {
	var date string
	var regionsFlag string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute risk scores for the configured regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			target, err := resolveDate(date)
			if err != nil {
				return err
			}

			regions := cfg.Regions
			if regionsFlag != "" {
				regions = config.SplitList(regionsFlag)
			}
			if len(regions) == 0 {
				return errors.New("no regions configured; set RISK_REGIONS or pass --regions")
			}

			ctx := cmd.Context()
			pg, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			sink, closeSink := buildSink(cfg, pg, logger)
			defer closeSink()

			updater := engine.NewRegionalUpdater(pg, pg, pg, sink, engine.UpdaterConfig{
				LookbackDays:   cfg.LookbackDays,
				StdMultiplier:  cfg.StdMultiplier,
				AlertThreshold: cfg.AlertThreshold,
			}, logger)
			runner := engine.NewRunner(updater, logger)

			result := runner.Run(ctx, regions, target)
			printRun(result, target, len(regions))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to score (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&regionsFlag, "regions", "", "Comma-separated region list, overrides RISK_REGIONS")
	return cmd
}

func initDBCmd(logger zerolog.Logger) *cobra.Command {
	var seed bool
	var date string
	var regionsFlag string
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create engine tables, optionally seeding demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()
			pg, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Println("Schema ready.")

			if !seed {
				return nil
			}

			target, err := resolveDate(date)
			if err != nil {
				return err
			}
			regions := cfg.Regions
			if regionsFlag != "" {
				regions = config.SplitList(regionsFlag)
			}
			if len(regions) == 0 {
				regions = []string{"north-region", "south-region", "east-region", "west-region", "central-region"}
			}

			seeded, err := pg.Seed(ctx, target, regions)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Printf("Seeded demo case records and readings for %s across %d regions.\n", target, len(regions))
			} else {
				fmt.Println("Case records already present; skipping seed.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed demo data when the case table is empty")
	cmd.Flags().StringVar(&date, "date", "", "Seed anchor date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&regionsFlag, "regions", "", "Comma-separated region list for seeding")
	return cmd
}

func openStore(ctx context.Context, cfg config.Config) (*store.PostgresStore, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL missing; set RISK_ENGINE_DB_URL or DATABASE_URL")
	}
	return store.Open(ctx, cfg.DatabaseURL)
}

func buildSink(cfg config.Config, pg *store.PostgresStore, logger zerolog.Logger) (engine.AlertSink, func()) {
	sinks := alert.Fanout{alert.NewStoreSink(pg)}
	closeFn := func() {}
	if len(cfg.KafkaBrokers) > 0 && cfg.AlertTopic != "" {
		kafkaSink := alert.NewKafkaSink(cfg.KafkaBrokers, cfg.AlertTopic, logger)
		sinks = append(sinks, kafkaSink)
		closeFn = func() { _ = kafkaSink.Close() }
	} else {
		sinks = append(sinks, alert.NewLogSink(logger))
	}
	return sinks, closeFn
}

func printRun(result engine.RunResult, date string, requested int) {
	fmt.Println("Regional Risk Engine")
	fmt.Println(strings.Repeat("=", 38))
	fmt.Printf("Date: %s\n", date)
	fmt.Printf("Regions processed: %d/%d (skipped %d, failed %d)\n",
		result.Processed, requested, result.Skipped, result.Failed)

	if len(result.Summaries) == 0 {
		fmt.Println("No regions updated.")
		return
	}

	fmt.Println(strings.Repeat("-", 38))
	for _, summary := range result.Summaries {
		fmt.Printf("%s | score %d | %s | cases %d | growth %.1f%% | anomaly %t\n",
			summary.Region,
			summary.RiskScore,
			summary.RiskLevel,
			summary.TotalCases,
			summary.GrowthRate,
			summary.IsAnomaly,
		)
	}
}

func resolveDate(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return time.Now().UTC().Format(model.DateLayout), nil
	}
	parsed, err := time.Parse(model.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid --date value: %w", err)
	}
	return parsed.Format(model.DateLayout), nil
}
