package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-harvest/internal/edgar"
	"github.com/sells-group/edgar-harvest/internal/enrich"
	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/internal/pipeline"
	"github.com/sells-group/edgar-harvest/internal/runlog"
	"github.com/sells-group/edgar-harvest/pkg/anthropic"
	"github.com/sells-group/edgar-harvest/pkg/yahoo"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Sweep recent 8-K filings and export located exhibits to CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyHarvestFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.EDGAR.UserAgent,
			RateLimiters: fetcher.SECRateLimiters(cfg.EDGAR.RequestsPerSec),
		})

		tickers := edgar.NewTickerResolver(f, cfg.EDGAR.DataBaseURL)
		tickers.LoadBulk(ctx)

		var volume pipeline.VolumeSource = enrich.NewVolumeFetcher(
			yahoo.NewClient(yahoo.WithBaseURL(cfg.Yahoo.BaseURL)))

		var summarizer pipeline.Summarizer
		if cfg.Harvest.Summarize {
			summarizer = enrich.NewSummarizer(f,
				anthropic.NewClient(cfg.Anthropic.Key),
				cfg.Anthropic.Model,
				cfg.Anthropic.MaxInputChars,
				cfg.Anthropic.MaxSummaryChars)
		}

		p := pipeline.New(
			edgar.NewHarvester(f, cfg.EDGAR.BaseURL, cfg.EDGAR.DayConcurrency),
			edgar.NewExhibitLocator(f, cfg.EDGAR.BaseURL),
			tickers,
			volume,
			summarizer,
		)

		opts := pipeline.Options{
			WindowDays:  cfg.Harvest.WindowDays,
			Concurrency: cfg.Harvest.Concurrency,
			MinVolume:   cfg.Harvest.MinVolume,
			Summarize:   cfg.Harvest.Summarize,
		}

		zap.L().Info("harvest starting",
			zap.Int("window_days", opts.WindowDays),
			zap.Int("concurrency", opts.Concurrency),
			zap.Int64("min_volume", opts.MinVolume),
			zap.Bool("summarize", opts.Summarize),
		)

		results, stats, err := p.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "harvest")
		}

		if err := pipeline.ExportCSV(cfg.Harvest.Output, results); err != nil {
			return eris.Wrap(err, "write output")
		}

		recordRun(opts, stats)

		zap.L().Info("harvest complete",
			zap.Int64("filings_seen", stats.Seen.Load()),
			zap.Int64("exhibits_located", stats.Located.Load()),
			zap.Int64("results_kept", stats.Kept.Load()),
			zap.String("output", cfg.Harvest.Output),
		)

		retention := 0.0
		if seen := stats.Seen.Load(); seen > 0 {
			retention = 100 * float64(stats.Kept.Load()) / float64(seen)
		}
		fmt.Fprintf(os.Stdout, "Wrote %d results to %s (%d filings seen, %d exhibits located, %.1f%% retained)\n",
			len(results), cfg.Harvest.Output, stats.Seen.Load(), stats.Located.Load(), retention)
		if len(results) == 0 && stats.Located.Load() > 0 && opts.MinVolume > 0 {
			fmt.Fprintln(os.Stderr, "All located exhibits fell below --min-volume; consider lowering it.")
		}
		return nil
	},
}

// applyHarvestFlags copies explicitly-set flags over the loaded config.
func applyHarvestFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("days") {
		cfg.Harvest.WindowDays, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("output") {
		cfg.Harvest.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Harvest.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("min-volume") {
		cfg.Harvest.MinVolume, _ = cmd.Flags().GetInt64("min-volume")
	}
	if cmd.Flags().Changed("summarize") {
		cfg.Harvest.Summarize, _ = cmd.Flags().GetBool("summarize")
	}
}

// recordRun stores the run in the local run log. Failures are logged and
// swallowed; the CSV is already on disk.
func recordRun(opts pipeline.Options, stats *pipeline.Stats) {
	store, err := runlog.Open(cfg.Store.Path)
	if err != nil {
		zap.L().Warn("run log unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	// The signal context may already be cancelled; recording still proceeds.
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		zap.L().Warn("run log migrate failed", zap.Error(err))
		return
	}
	if _, err := store.Record(ctx, runlog.Run{
		WindowDays:  opts.WindowDays,
		FilingsSeen: stats.Seen.Load(),
		FilingsKept: stats.Kept.Load(),
		OutputPath:  cfg.Harvest.Output,
	}); err != nil {
		zap.L().Warn("run log record failed", zap.Error(err))
	}
}

func init() {
	harvestCmd.Flags().Int("days", 30, "how many days back to sweep")
	harvestCmd.Flags().String("output", "exhibit_99_1_filings.csv", "output CSV path")
	harvestCmd.Flags().Int("concurrency", 8, "filing worker pool size")
	harvestCmd.Flags().Int64("min-volume", 0, "drop results with option volume below this")
	harvestCmd.Flags().Bool("summarize", false, "generate an LLM summary per exhibit")
	rootCmd.AddCommand(harvestCmd)
}
