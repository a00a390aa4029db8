package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/config"
	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/pipeline"
	"github.com/theirongolddev/mfgdash/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagFeed    string
	flagFrom    string
	flagTo      string
	flagMetric  string
	flagHorizon int
	flagNoCache bool
	flagMerge   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "mfgdash",
	Short: "Manufacturing sales dashboard and forecaster",
	Long:  "Summarize monthly product sales, compare products, and project a metric forward with a linear trend and 95% band.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFeed, "feed", "f", "", "Sales CSV file or directory of CSVs (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "First month to include (YYYY-MM or YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "Last month to include (YYYY-MM or YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVarP(&flagMetric, "metric", "m", "", "Metric column to forecast (substring match)")
	rootCmd.PersistentFlags().IntVarP(&flagHorizon, "horizon", "H", 0, "Months to forecast (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVar(&flagMerge, "merge", false, "Merge every CSV in a feed directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file and environment overrides. A broken
// config file is reported and replaced by defaults.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Config error (%v), using defaults\n", err)
		}
		cfg = config.DefaultConfig()
	}
	return config.ApplyEnv(cfg)
}

// feedSource resolves where to read the feed from. --feed always selects a
// file source, even when a SQL source is configured.
func feedSource(cfg config.Config) pipeline.Source {
	src := pipeline.Source{
		Path:    cfg.General.FeedPath,
		Merge:   cfg.General.MergeFeeds || flagMerge,
		NoCache: flagNoCache,
		Driver:  cfg.Source.Driver,
		DSN:     cfg.Source.DSN,
		Table:   cfg.Source.Table,
		Options: cfg.SourceOptions(),
	}
	if flagFeed != "" {
		src.Path = flagFeed
		src.Driver, src.DSN, src.Table = "", "", ""
	}
	return src
}

// buildQuery turns the filter flags into a query, falling back to config.
func buildQuery(cfg config.Config) (pipeline.Query, error) {
	q := pipeline.Query{
		Metric:  cfg.General.DefaultMetric,
		Horizon: cfg.Forecast.Horizon,
	}
	if flagMetric != "" {
		q.Metric = flagMetric
	}
	if flagHorizon > 0 {
		q.Horizon = flagHorizon
	}

	var err error
	if flagFrom != "" {
		if q.From, err = source.ParseMonth(flagFrom); err != nil {
			return q, fmt.Errorf("--from: %w", err)
		}
	}
	if flagTo != "" {
		if q.To, err = source.ParseMonth(flagTo); err != nil {
			return q, fmt.Errorf("--to: %w", err)
		}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, fmt.Errorf("--to %s is before --from %s", flagTo, flagFrom)
	}
	return q, nil
}

// loadData is the shared data loading path used by all commands.
// File feeds use the SQLite cache unless --no-cache is set.
func loadData(ctx context.Context, src pipeline.Source) (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", src)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  %s", cli.RenderProgressBar("Parsing", current, total, 24))
	}

	start := time.Now()
	result, err := src.Load(ctx, progressFn)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}

	if !flagQuiet {
		months := len(result.Feed.Records)
		switch {
		case result.CacheHits > 0 && result.Reparsed == 0:
			fmt.Fprintf(os.Stderr, "\r  Loaded %d months from cache (%d files)    \n", months, result.CacheHits)
		case result.CacheHits > 0:
			fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed files, %d months    \n", result.CacheHits, result.Reparsed, months)
		default:
			fmt.Fprintf(os.Stderr, "\r  Parsed %d months in %s    \n", months, time.Since(start).Round(time.Millisecond))
		}
	}
	if result.ParseErrors > 0 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d rows could not be parsed and were skipped\n", result.ParseErrors)
	}
	return result, nil
}

// loadView loads the feed and computes the view for the filter flags.
func loadView(ctx context.Context) (*pipeline.View, *pipeline.LoadResult, error) {
	cfg := loadConfig()
	q, err := buildQuery(cfg)
	if err != nil {
		return nil, nil, err
	}

	result, err := loadData(ctx, feedSource(cfg))
	if err != nil {
		return nil, nil, err
	}

	v, err := pipeline.BuildView(result.Feed, q, forecast.NewEngine(cfg.Forecast.MaxHorizon))
	if err != nil {
		return nil, nil, err
	}
	return v, result, nil
}
