package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/mfgdash/internal/tui"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTUIExportDir string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagTUIExportDir, "export-dir", ".", "Directory for files written with e/E")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	theme.SetActive(cfg.Appearance.Theme)

	q, err := buildQuery(cfg)
	if err != nil {
		return err
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Source:       feedSource(cfg),
		From:         q.From,
		To:           q.To,
		Metric:       q.Metric,
		Horizon:      q.Horizon,
		MaxHorizon:   cfg.Forecast.MaxHorizon,
		ExportDir:    flagTUIExportDir,
		PollInterval: time.Duration(cfg.Server.PollIntervalSec) * time.Second,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
