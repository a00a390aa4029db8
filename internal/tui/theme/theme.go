// Package theme defines the color palettes of the mfgdash terminal dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the dashboard's color roles to concrete terminal colors.
type Theme struct {
	Name string

	Background   lipgloss.Color
	Surface      lipgloss.Color // cards, tab bar, status bar
	SurfaceHover lipgloss.Color // active tab, selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // loading card, help overlay

	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Up   lipgloss.Color // month-over-month growth
	Down lipgloss.Color // month-over-month decline
	Warn lipgloss.Color

	// Forecast and Band color the projected values and their interval.
	Forecast lipgloss.Color
	Band     lipgloss.Color

	// Series is cycled through for per-metric colors.
	Series []lipgloss.Color
}

// SeriesColor returns the color for the i-th metric series.
func (t Theme) SeriesColor(i int) lipgloss.Color {
	if len(t.Series) == 0 {
		return t.Accent
	}
	if i < 0 {
		i = -i
	}
	return t.Series[i%len(t.Series)]
}

// TrendColor returns Up, Down, or TextMuted for a trend direction.
func (t Theme) TrendColor(dir int) lipgloss.Color {
	switch {
	case dir > 0:
		return t.Up
	case dir < 0:
		return t.Down
	default:
		return t.TextMuted
	}
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Up:           lipgloss.Color("#879A39"),
	Down:         lipgloss.Color("#D14D41"),
	Warn:         lipgloss.Color("#DA702C"),
	Forecast:     lipgloss.Color("#D0A215"),
	Band:         lipgloss.Color("#66800B"),
	Series: []lipgloss.Color{
		lipgloss.Color("#4385BE"),
		lipgloss.Color("#CE5D97"),
		lipgloss.Color("#3AA99F"),
		lipgloss.Color("#DA702C"),
		lipgloss.Color("#8B7EC8"),
	},
}

// FlexokiLight is the paper-colored variant for light terminals.
var FlexokiLight = Theme{
	Name:         "flexoki-light",
	Background:   lipgloss.Color("#FFFCF0"),
	Surface:      lipgloss.Color("#F2F0E5"),
	SurfaceHover: lipgloss.Color("#E6E4D9"),
	Border:       lipgloss.Color("#CECDC3"),
	BorderAccent: lipgloss.Color("#24837B"),
	TextDim:      lipgloss.Color("#B7B5AC"),
	TextMuted:    lipgloss.Color("#6F6E69"),
	TextPrimary:  lipgloss.Color("#100F0F"),
	Accent:       lipgloss.Color("#24837B"),
	AccentBright: lipgloss.Color("#1C6C66"),
	Up:           lipgloss.Color("#66800B"),
	Down:         lipgloss.Color("#AF3029"),
	Warn:         lipgloss.Color("#BC5215"),
	Forecast:     lipgloss.Color("#AD8301"),
	Band:         lipgloss.Color("#879A39"),
	Series: []lipgloss.Color{
		lipgloss.Color("#205EA6"),
		lipgloss.Color("#A02F6F"),
		lipgloss.Color("#24837B"),
		lipgloss.Color("#BC5215"),
		lipgloss.Color("#5E409D"),
	},
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Up:           lipgloss.Color("#9ECE6A"),
	Down:         lipgloss.Color("#F7768E"),
	Warn:         lipgloss.Color("#FF9E64"),
	Forecast:     lipgloss.Color("#E0AF68"),
	Band:         lipgloss.Color("#73DACA"),
	Series: []lipgloss.Color{
		lipgloss.Color("#7AA2F7"),
		lipgloss.Color("#BB9AF7"),
		lipgloss.Color("#7DCFFF"),
		lipgloss.Color("#FF9E64"),
		lipgloss.Color("#9ECE6A"),
	},
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Up:           lipgloss.Color("2"),
	Down:         lipgloss.Color("1"),
	Warn:         lipgloss.Color("3"),
	Forecast:     lipgloss.Color("3"),
	Band:         lipgloss.Color("10"),
	Series: []lipgloss.Color{
		lipgloss.Color("4"),
		lipgloss.Color("5"),
		lipgloss.Color("6"),
		lipgloss.Color("3"),
		lipgloss.Color("2"),
	},
}

// All available themes.
var All = []Theme{FlexokiDark, FlexokiLight, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
