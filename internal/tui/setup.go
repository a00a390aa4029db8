package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/config"
	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the form-bound values for the first-run wizard.
type setupValues struct {
	feedPath    string
	monthColumn string
	totalColumn string
	horizon     string
	theme       string
}

var horizonOptions = []int{3, 6, 12, 24}

func defaultSetupValues(opts Options) setupValues {
	cfg, _ := config.Load()
	return setupValues{
		feedPath:    opts.Source.Path,
		monthColumn: cfg.General.MonthColumn,
		totalColumn: cfg.General.TotalColumn,
		horizon:     strconv.Itoa(opts.Horizon),
		theme:       theme.Active.Name,
	}
}

// newSetupForm creates the huh form for first-run configuration.
// feed may be nil when the initial load failed.
func newSetupForm(feed *model.Feed, vals *setupValues) *huh.Form {
	welcome := "No feed loaded yet. Point mfgdash at your sales CSV below."
	if feed != nil {
		first, last := feed.Span()
		welcome = fmt.Sprintf("Loaded %d months (%s to %s) with %d metrics.",
			len(feed.Records), first.Format("Jan 2006"), last.Format("Jan 2006"), len(feed.Metrics))
	}

	horizonOpts := make([]huh.Option[string], 0, len(horizonOptions))
	for _, h := range horizonOptions {
		horizonOpts = append(horizonOpts, huh.NewOption(fmt.Sprintf("%d months", h), strconv.Itoa(h)))
	}
	if !containsOption(horizonOpts, vals.horizon) {
		horizonOpts = append(horizonOpts, huh.NewOption(vals.horizon+" months", vals.horizon))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to mfgdash").
				Description(welcome+"\n\nLet's set up a few things."),
			huh.NewInput().
				Title("Sales feed").
				Description("CSV file or a directory of CSV exports").
				Value(&vals.feedPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a feed path is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Month column").
				Value(&vals.monthColumn),
			huh.NewInput().
				Title("Total column").
				Description("Derived from the product columns when the feed lacks it").
				Value(&vals.totalColumn),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Forecast horizon").
				Options(horizonOpts...).
				Value(&vals.horizon),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

func containsOption(opts []huh.Option[string], v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// saveSetupConfig persists the wizard values and applies them to the running
// app. It reports whether the feed source changed and must be reloaded.
func (a *App) saveSetupConfig() (bool, error) {
	cfg, _ := config.Load()
	vals := a.setupVals

	cfg.General.FeedPath = strings.TrimSpace(vals.feedPath)
	if v := strings.TrimSpace(vals.monthColumn); v != "" {
		cfg.General.MonthColumn = v
	}
	if v := strings.TrimSpace(vals.totalColumn); v != "" {
		cfg.General.TotalColumn = v
	}
	if h, err := strconv.Atoi(vals.horizon); err == nil && h > 0 {
		cfg.Forecast.Horizon = h
		a.horizon = h
	}
	cfg.Appearance.Theme = vals.theme
	theme.SetActive(vals.theme)

	src := a.opts.Source
	changed := false
	if !src.IsDB() {
		opts := cfg.SourceOptions()
		changed = src.Path != cfg.General.FeedPath || src.Options != opts
		src.Path = cfg.General.FeedPath
		src.Options = opts
	}
	a.opts.Source = src

	return changed, config.Save(cfg)
}
