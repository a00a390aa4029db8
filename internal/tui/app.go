// Package tui provides the interactive Bubble Tea dashboard for mfgdash.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/config"
	"github.com/theirongolddev/mfgdash/internal/export"
	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/pipeline"
	"github.com/theirongolddev/mfgdash/internal/tui/components"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Options configures a dashboard session.
type Options struct {
	Source     pipeline.Source
	From       time.Time
	To         time.Time
	Metric     string
	Horizon    int
	MaxHorizon int
	// ExportDir receives files written with the export keys.
	ExportDir string
	// PollInterval is how often the feed is checked for changes; 0 disables it.
	PollInterval time.Duration
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Result      *pipeline.LoadResult
	Fingerprint string
	Err         error
	LoadTime    time.Duration
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// ReloadedMsg is sent when a background reload completes.
type ReloadedMsg struct {
	Result      *pipeline.LoadResult
	Fingerprint string
	Err         error
	LoadTime    time.Duration
}

type fingerprintMsg struct {
	value string
}

type exportedMsg struct {
	path string
	err  error
}

type pollMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	engine *forecast.Engine

	// Data
	feed        *model.Feed
	loadRes     *pipeline.LoadResult
	loaded      bool
	loadErr     error
	loadTime    time.Duration
	fingerprint string
	reloading   bool

	// Filter state. from/to are zero until the user moves them.
	from    time.Time
	to      time.Time
	metric  string
	horizon int

	// Computed for the current filter
	view    *pipeline.View
	viewErr error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string
	noticeErr bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Horizon < 1 {
		opts.Horizon = 1
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		engine:    forecast.NewEngine(opts.MaxHorizon),
		from:      opts.From,
		to:        opts.To,
		metric:    opts.Metric,
		horizon:   opts.Horizon,
		needSetup: !config.Exists(),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Source, a.loadSub),
		a.spinner.Tick,
	}
	if a.opts.PollInterval > 0 {
		cmds = append(cmds, pollCmd(a.opts.PollInterval))
	}
	return tea.Batch(cmds...)
}

// recompute rebuilds the view for the current filter selection.
func (a *App) recompute() {
	if a.feed == nil {
		a.view, a.viewErr = nil, nil
		return
	}
	a.view, a.viewErr = pipeline.BuildView(a.feed, pipeline.Query{
		From:    a.from,
		To:      a.to,
		Metric:  a.metric,
		Horizon: a.horizon,
	}, a.engine)
	if a.viewErr != nil && a.metric != "" {
		// unknown metric from flags: fall back to the total column
		a.notice, a.noticeErr = a.viewErr.Error(), true
		a.metric = ""
		a.recompute()
	}
}

func (a *App) applyLoad(res *pipeline.LoadResult, fp string, took time.Duration) {
	a.loadRes = res
	a.feed = res.Feed
	a.fingerprint = fp
	a.loadTime = took
	a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := components.TabAtX(msg.X, a.activeTab); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		return a.handleKey(msg.String())

	case DataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.applyLoad(msg.Result, msg.Fingerprint, msg.LoadTime)
		}
		if a.needSetup {
			a.setupVals = defaultSetupValues(a.opts)
			a.setupForm = newSetupForm(a.feed, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case pollMsg:
		next := pollCmd(a.opts.PollInterval)
		if !a.loaded || a.reloading {
			return a, next
		}
		return a, tea.Batch(next, fingerprintCmd(a.opts.Source))

	case fingerprintMsg:
		if msg.value != "" && msg.value != a.fingerprint && !a.reloading {
			a.reloading = true
			return a, reloadCmd(a.opts.Source)
		}
		return a, nil

	case ReloadedMsg:
		a.reloading = false
		if msg.Err != nil {
			a.notice, a.noticeErr = "reload failed: "+msg.Err.Error(), true
			return a, nil
		}
		a.loadErr = nil
		a.applyLoad(msg.Result, msg.Fingerprint, msg.LoadTime)
		a.notice, a.noticeErr = "feed reloaded", false
		return a, nil

	case exportedMsg:
		if msg.err != nil {
			a.notice, a.noticeErr = "export failed: "+msg.err.Error(), true
		} else {
			a.notice, a.noticeErr = "exported "+msg.path, false
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

// handleKey applies a key press on the main dashboard.
func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.notice = ""
	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.reloading {
			a.reloading = true
			return a, reloadCmd(a.opts.Source)
		}
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "m":
		a.cycleMetric(1)
	case "M":
		a.cycleMetric(-1)
	case "+", "=":
		a.setHorizon(a.horizon + 1)
	case "-", "_":
		a.setHorizon(a.horizon - 1)
	case "[":
		a.shiftRange(-1, 0)
	case "]":
		a.shiftRange(1, 0)
	case "{":
		a.shiftRange(0, -1)
	case "}":
		a.shiftRange(0, 1)
	case "a":
		a.from, a.to = time.Time{}, time.Time{}
		a.recompute()
	case "e":
		return a, a.exportCmd(export.FormatXLSX)
	case "E":
		return a, a.exportCmd(export.FormatCSV)
	default:
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a *App) cycleMetric(step int) {
	if a.feed == nil || len(a.feed.Metrics) == 0 {
		return
	}
	current := a.feed.TotalColumn
	if a.view != nil {
		current = a.view.Metric
	}
	idx := 0
	for i, m := range a.feed.Metrics {
		if m == current {
			idx = i
			break
		}
	}
	n := len(a.feed.Metrics)
	a.metric = a.feed.Metrics[(idx+step+n)%n]
	a.recompute()
}

func (a *App) setHorizon(h int) {
	if h < 1 {
		h = 1
	}
	if a.opts.MaxHorizon > 0 && h > a.opts.MaxHorizon {
		h = a.opts.MaxHorizon
	}
	a.horizon = h
	a.recompute()
}

// shiftRange moves the start and end of the range by whole months, keeping
// both inside the feed's span and start <= end.
func (a *App) shiftRange(fromDelta, toDelta int) {
	if a.feed == nil || len(a.feed.Records) == 0 {
		return
	}
	first, last := a.feed.Span()
	from, to := pipeline.ResolveRange(a.feed, a.from, a.to)
	from = clampMonth(from.AddDate(0, fromDelta, 0), first, last)
	to = clampMonth(to.AddDate(0, toDelta, 0), first, last)
	if from.After(to) {
		return
	}
	a.from, a.to = from, to
	a.recompute()
}

func clampMonth(t, lo, hi time.Time) time.Time {
	lo, hi = model.MonthStart(lo), model.MonthStart(hi)
	switch {
	case t.Before(lo):
		return lo
	case t.After(hi):
		return hi
	default:
		return t
	}
}

func (a App) exportCmd(format export.Format) tea.Cmd {
	if a.view == nil || a.view.Forecast == nil {
		err := errors.New("no forecast to export")
		if a.view != nil && a.view.ForecastErr != nil {
			err = a.view.ForecastErr
		}
		return func() tea.Msg {
			return exportedMsg{err: err}
		}
	}
	name := export.FileName(a.view.Metric, format)
	path := filepath.Join(a.opts.ExportDir, name)
	rows := a.view.Forecast.Rows
	return func() tea.Msg {
		return exportedMsg{path: path, err: export.SaveFile(path, rows)}
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		changed, err := a.saveSetupConfig()
		if err != nil {
			a.notice, a.noticeErr = "could not save config: "+err.Error(), true
		}
		a.recompute()
		if changed {
			a.reloading = true
			return a, reloadCmd(a.opts.Source)
		}
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  mfgdash needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ mfgdash"))
	b.WriteString(subtitleStyle.Render(" · Manufacturing Sales"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 1 {
		barW := min(max(a.width-30, 20), 40)
		b.WriteString(subtitleStyle.Render(" Parsing feeds\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(subtitleStyle.Render(" Loading " + a.opts.Source.String() + "..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type keyBinding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []keyBinding
}{
	{"Navigation", []keyBinding{
		{"o c f", "Jump to tab"},
		{"← → tab", "Previous / next tab"},
	}},
	{"Filters", []keyBinding{
		{"m M", "Next / previous metric"},
		{"[ ]", "Move range start"},
		{"{ }", "Move range end"},
		{"a", "Show all months"},
		{"+ -", "Forecast horizon"},
	}},
	{"Actions", []keyBinding{
		{"e", "Export forecast (.xlsx)"},
		{"E", "Export forecast (.csv)"},
		{"r", "Reload feed"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range helpSections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)

	st := components.Status{
		Source:    a.opts.Source.String(),
		LoadTime:  fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Reloading: a.reloading,
		Message:   a.notice,
		IsError:   a.noticeErr,
	}
	if a.feed != nil {
		st.Months = len(a.feed.Records)
	}
	statusBar := components.RenderStatusBar(w, st)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = a.renderError("Could not load feed", a.loadErr, cw)
	case a.viewErr != nil:
		content = a.renderError("Could not compute dashboard", a.viewErr, cw)
	case a.view == nil || len(a.view.Records) == 0:
		content = components.ContentCard("No data", "The selected range has no months. Press a to show all.", cw)
	default:
		switch a.activeTab {
		case 0:
			content = a.renderOverviewTab(cw)
		case 1:
			content = a.renderCompareTab(cw)
		case 2:
			content = a.renderForecastTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderFilterRow shows the active range, metric and horizon.
func (a App) renderFilterRow(w int) string {
	t := theme.Active
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	rangeStr, metric := "-", a.metric
	if a.view != nil {
		rangeStr = cli.FormatRange(a.view.From, a.view.To)
		metric = a.view.Metric
	}
	s := pill.Render(" ") + accent.Render(rangeStr) +
		pill.Render(" │ ") + accent.Render(metric) +
		pill.Render(" │ horizon ") + accent.Render(fmt.Sprintf("%dm", a.horizon)) +
		pill.Render(" ")

	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s)
}

func (a App) renderError(title string, err error, cw int) string {
	t := theme.Active
	msg := lipgloss.NewStyle().Foreground(t.Down).Background(t.Surface).Render(err.Error())
	hint := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
		Render("Press r to retry or q to quit. Run `mfgdash setup` to change the feed.")
	return components.ContentCard(title, msg+"\n\n"+hint, cw)
}

// ─── Commands ───────────────────────────────────────────────────

func pollCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func fingerprintCmd(src pipeline.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fp, err := src.Fingerprint(ctx)
		if err != nil {
			return fingerprintMsg{}
		}
		return fingerprintMsg{value: fp}
	}
}

// loadDataCmd starts the loader in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(src pipeline.Source, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; a dropped
			// update is superseded by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			ctx := context.Background()
			fp, _ := src.Fingerprint(ctx)
			res, err := src.Load(ctx, progressFn)
			sub <- DataLoadedMsg{Result: res, Fingerprint: fp, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// reloadCmd reloads the feed in the background without progress UI.
func reloadCmd(src pipeline.Source) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		fp, _ := src.Fingerprint(ctx)
		res, err := src.Load(ctx, nil)
		return ReloadedMsg{Result: res, Fingerprint: fp, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Layout helpers ─────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
