package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/tui/components"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// maxCards caps the KPI row; wider feeds show the first products and the total.
const maxCards = 4

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	v := a.view
	var b strings.Builder

	// Row 1: one KPI card per metric, total first
	b.WriteString(components.MetricCardRow(a.metricCards(), cw))
	b.WriteString("\n")

	// Row 2: monthly bar chart of the selected metric
	metricIdx := a.metricIndex(v.Metric)
	bars := make([]components.Bar, len(v.Filtered))
	for i, p := range v.Filtered {
		val := p.Value
		if math.IsNaN(val) {
			val = 0
		}
		bars[i] = components.Bar{
			Label: p.Period.Format("Jan"),
			Value: val,
			Color: t.SeriesColor(metricIdx),
		}
	}
	chartH := 10
	if a.isCompactLayout() {
		chartH = 7
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("%s by Month (%s)", v.Metric, cli.FormatRange(v.From, v.To)),
		components.BarChart(bars, components.CardInnerWidth(cw), chartH),
		cw,
	))
	b.WriteString("\n")

	// Row 3: per-metric sparklines + highlights of the selected metric
	trendCard := a.renderTrendLines(cw)
	highlights := a.renderHighlights()
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Sales Trend", trendCard, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Highlights", highlights, cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Sales Trend", trendCard, halves[0]),
			components.ContentCard("Highlights", highlights, halves[1]),
		}))
	}

	return b.String()
}

// metricCards orders the total column first, then products.
func (a App) metricCards() []components.Metric {
	t := theme.Active
	v := a.view

	ordered := []string{a.feed.TotalColumn}
	ordered = append(ordered, a.feed.Products()...)
	if len(ordered) > maxCards {
		ordered = ordered[:maxCards]
	}

	cards := make([]components.Metric, 0, len(ordered))
	for _, m := range ordered {
		cur, ok := v.Stats.Total(m)
		if !ok {
			continue
		}
		card := components.Metric{
			Label: truncStr(m, 24),
			Value: cli.FormatSales(cur.Sum),
			Color: t.SeriesColor(a.metricIndex(m)),
		}
		if prev, ok := v.Previous.Total(m); ok && v.Previous.Months > 0 {
			card.Delta = cli.FormatDelta(cur.Sum, prev.Sum) + " vs prior"
			card.Trend = compare(cur.Sum, prev.Sum)
		} else {
			card.Delta = cli.FormatSales(cur.Average) + "/mo"
		}
		if m == v.Metric {
			card.Label = "● " + card.Label
		}
		cards = append(cards, card)
	}
	return cards
}

// renderTrendLines draws one sparkline per metric over the filtered range.
func (a App) renderTrendLines(cw int) string {
	t := theme.Active
	v := a.view

	innerW := components.CardInnerWidth(cw)
	if !a.isCompactLayout() {
		innerW = components.CardInnerWidth(components.LayoutRow(cw, 2)[0])
	}
	nameW := min(max(innerW/3, 10), 24)
	valueW := 10
	sparkW := max(innerW-nameW-valueW-2, 4)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var body strings.Builder
	for i, m := range a.feed.Metrics {
		values := make([]float64, 0, len(v.Months))
		for _, ms := range v.Months {
			values = append(values, ms.Values[m])
		}
		if len(values) > sparkW {
			values = values[len(values)-sparkW:]
		}
		latest := 0.0
		if len(values) > 0 {
			latest = values[len(values)-1]
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(m, nameW))))
		body.WriteString(space)
		body.WriteString(components.Sparkline(values, t.SeriesColor(i)))
		body.WriteString(space)
		body.WriteString(valueStyle.Render(fmt.Sprintf("%*s", valueW, cli.FormatCompact(latest))))
		if i < len(a.feed.Metrics)-1 {
			body.WriteString("\n")
		}
	}
	return body.String()
}

func (a App) renderHighlights() string {
	t := theme.Active
	v := a.view

	tot, ok := v.Stats.Total(v.Metric)
	if !ok {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	mom := "-"
	dir := 0
	if v.Stats.Months > 1 {
		mom = cli.FormatDelta(tot.Latest, tot.Previous)
		dir = compare(tot.Latest, tot.Previous)
	}

	rows := []struct{ label, value string }{
		{"Months", fmt.Sprintf("%d", v.Stats.Months)},
		{"Average", cli.FormatSales(tot.Average) + "/mo"},
		{"Range", cli.FormatSales(tot.Min) + " - " + cli.FormatSales(tot.Max)},
		{"Peak", cli.FormatMonth(tot.PeakAt)},
		{"Latest", cli.FormatSales(tot.Latest)},
	}

	var body strings.Builder
	for _, r := range rows {
		body.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", r.label)))
		body.WriteString(valueStyle.Render(r.value))
		body.WriteString("\n")
	}
	body.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", "MoM")))
	body.WriteString(lipgloss.NewStyle().Foreground(t.TrendColor(dir)).Background(t.Surface).
		Render(cli.TrendArrow(dir) + " " + mom))
	return body.String()
}

// metricIndex returns the position of metric in the feed, for stable colors.
func (a App) metricIndex(metric string) int {
	for i, m := range a.feed.Metrics {
		if m == metric {
			return i
		}
	}
	return 0
}

func compare(cur, prev float64) int {
	switch {
	case cur > prev:
		return 1
	case cur < prev:
		return -1
	default:
		return 0
	}
}
