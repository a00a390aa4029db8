package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/tui/components"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCompareTab(cw int) string {
	v := a.view
	var b strings.Builder

	if len(v.Shares) == 0 {
		return components.ContentCard("Product Comparison", "The feed has no product columns.", cw)
	}

	title := "Product Totals (" + cli.FormatRange(v.From, v.To) + ")"
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(title, a.renderProductBars(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Share of Sales", a.renderShares(components.CardInnerWidth(cw)), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(title, a.renderProductBars(components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard("Share of Sales", a.renderShares(components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Monthly by Product", a.renderProductTable(cw), cw))
	return b.String()
}

// renderProductBars draws one bar per product total, in feed column order.
func (a App) renderProductBars(width int) string {
	t := theme.Active
	products := a.feed.Products()

	sums := make(map[string]float64, len(a.view.Shares))
	for _, s := range a.view.Shares {
		sums[s.Product] = s.Sum
	}

	bars := make([]components.Bar, len(products))
	for i, p := range products {
		bars[i] = components.Bar{
			Label: shortProduct(p),
			Value: sums[p],
			Color: t.SeriesColor(a.metricIndex(p)),
		}
	}
	return components.BarChart(bars, width, 8)
}

func (a App) renderShares(width int) string {
	t := theme.Active

	labelW := min(max(width/3, 10), 20)
	valueW := 18
	barW := max(width-labelW-valueW-2, 5)

	var body strings.Builder
	for i, s := range a.view.Shares {
		arrow := lipgloss.NewStyle().Foreground(t.TrendColor(s.TrendDirection)).Background(t.Surface).
			Render(cli.TrendArrow(s.TrendDirection))
		value := fmt.Sprintf("%s %s", cli.FormatPercent(s.SharePercent), cli.FormatCompact(s.Sum))
		body.WriteString(components.ShareBar(s.Product, s.SharePercent/100, value, t.SeriesColor(a.metricIndex(s.Product)), labelW, barW))
		body.WriteString(lipgloss.NewStyle().Background(t.Surface).Render(" "))
		body.WriteString(arrow)
		if i < len(a.view.Shares)-1 {
			body.WriteString("\n")
		}
	}
	return body.String()
}

// renderProductTable lists the most recent months that fit, newest first.
func (a App) renderProductTable(cw int) string {
	t := theme.Active
	v := a.view
	innerW := components.CardInnerWidth(cw)

	cols := a.feed.Metrics
	monthW := 10
	colW := max((innerW-monthW)/max(len(cols), 1)-1, 8)
	if monthW+len(cols)*(colW+1) > innerW {
		cols = cols[:max((innerW-monthW)/(colW+1), 1)]
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", monthW, "Month")))
	for _, c := range cols {
		body.WriteString(headerStyle.Render(fmt.Sprintf(" %*s", colW, truncStr(shortProduct(c), colW))))
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", monthW+len(cols)*(colW+1))))

	limit := min(len(v.Months), 12)
	for i := len(v.Months) - 1; i >= len(v.Months)-limit; i-- {
		ms := v.Months[i]
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", monthW, cli.FormatMonth(ms.Month))))
		for _, c := range cols {
			body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", colW, cli.FormatOptional(ms.Cell(c)))))
		}
	}
	return body.String()
}

// shortProduct trims the conventional "_Sales" suffix for narrow labels.
func shortProduct(name string) string {
	s := strings.TrimSuffix(name, "_Sales")
	s = strings.TrimSuffix(s, " Sales")
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return name
	}
	return s
}
