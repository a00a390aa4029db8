// Package cmd implements the mfgdash CLI commands.
package cmd

import (
	"fmt"
	"net/url"

	"github.com/theirongolddev/mfgdash/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Feed:           %s\n", cfg.General.FeedPath)
	fmt.Printf("    Merge feeds:    %v\n", cfg.General.MergeFeeds)
	fmt.Printf("    Month column:   %s\n", cfg.General.MonthColumn)
	fmt.Printf("    Total column:   %s\n", cfg.General.TotalColumn)
	fmt.Printf("    Default metric: %s\n", cfg.General.DefaultMetric)
	fmt.Println()

	fmt.Println("  [Source]")
	if cfg.Source.Driver != "" {
		fmt.Printf("    Driver: %s\n", cfg.Source.Driver)
		fmt.Printf("    DSN:    %s\n", maskDSN(cfg.Source.DSN))
		fmt.Printf("    Table:  %s\n", cfg.Source.Table)
	} else {
		fmt.Println("    SQL source: not configured (reading CSV)")
	}
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Horizon:     %d months\n", cfg.Forecast.Horizon)
	if cfg.Forecast.MaxHorizon > 0 {
		fmt.Printf("    Max horizon: %d months\n", cfg.Forecast.MaxHorizon)
	} else {
		fmt.Println("    Max horizon: unlimited")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval: %ds\n", cfg.Server.PollIntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `mfgdash setup` to reconfigure.")
	return nil
}

// maskDSN hides the password of URL-style DSNs and most of anything else.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "not set"
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	return maskSecret(dsn)
}

func maskSecret(s string) string {
	if len(s) > 16 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return "****"
}
