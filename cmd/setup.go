package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/config"
	"github.com/theirongolddev/mfgdash/internal/source"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	var (
		feedPath    = cfg.General.FeedPath
		monthColumn = cfg.General.MonthColumn
		totalColumn = cfg.General.TotalColumn
		driver      = cfg.Source.Driver
		dsn         = cfg.Source.DSN
		table       = cfg.Source.Table
		horizon     = strconv.Itoa(cfg.Forecast.Horizon)
		themeName   = cfg.Appearance.Theme
	)
	if themeName == "" {
		themeName = theme.FlexokiDark.Name
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	notBlank := func(what string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", what)
			}
			return nil
		}
	}

	intro := fmt.Sprintf("Settings are saved to %s.", config.ConfigPath())
	if df, err := source.Discover(feedPath); err == nil {
		intro += fmt.Sprintf("\nCurrent feed: %s (updated %s).", df.Path, df.ModTime.Format("2006-01-02 15:04"))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to mfgdash!").
				Description(intro),
			huh.NewSelect[string]().
				Title("Where does the sales feed live?").
				Options(
					huh.NewOption("CSV file or directory", ""),
					huh.NewOption("PostgreSQL table", "postgres"),
					huh.NewOption("MySQL table", "mysql"),
					huh.NewOption("SQLite table", "sqlite"),
				).
				Value(&driver),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Sales feed path").
				Description("A Power BI CSV export, or a directory of them").
				Value(&feedPath).
				Validate(notBlank("a feed path")),
		).WithHideFunc(func() bool { return driver != "" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Connection string").
				Value(&dsn).
				Validate(notBlank("a connection string")),
			huh.NewInput().
				Title("Table").
				Value(&table).
				Validate(notBlank("a table name")),
		).WithHideFunc(func() bool { return driver == "" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Month column").
				Value(&monthColumn).
				Validate(notBlank("the month column")),
			huh.NewInput().
				Title("Total column").
				Description("Summed from the product columns when the feed lacks it").
				Value(&totalColumn).
				Validate(notBlank("the total column")),
			huh.NewInput().
				Title("Forecast horizon (months)").
				Value(&horizon).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return errors.New("enter a whole number of months, at least 1")
					}
					if cfg.Forecast.MaxHorizon > 0 && n > cfg.Forecast.MaxHorizon {
						return fmt.Errorf("at most %d months", cfg.Forecast.MaxHorizon)
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled; nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.General.FeedPath = strings.TrimSpace(feedPath)
	cfg.General.MonthColumn = strings.TrimSpace(monthColumn)
	cfg.General.TotalColumn = strings.TrimSpace(totalColumn)
	cfg.Source = config.SourceConfig{Driver: driver}
	if driver != "" {
		cfg.Source.DSN = strings.TrimSpace(dsn)
		cfg.Source.Table = strings.TrimSpace(table)
	}
	cfg.Forecast.Horizon, _ = strconv.Atoi(strings.TrimSpace(horizon))
	cfg.Appearance.Theme = themeName

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `mfgdash setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
