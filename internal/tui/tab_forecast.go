package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/tui/components"
	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// forecastChartActuals is how many trailing actual months the chart shows
// before the projection.
const forecastChartActuals = 12

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	v := a.view

	if v.ForecastErr != nil {
		hint := "Press + or - to change the horizon, m to pick another metric."
		if errors.Is(v.ForecastErr, forecast.ErrInvalidInput) && len(v.History) < 2 {
			hint = "A forecast needs at least two months of history."
		}
		msg := lipgloss.NewStyle().Foreground(t.Down).Background(t.Surface).Render(v.ForecastErr.Error())
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(hint)
		return components.ContentCard("Forecast unavailable", msg+"\n\n"+muted, cw)
	}

	res := v.Forecast
	last := res.Points[len(res.Points)-1]
	next := res.Points[0]
	slopeDir := compare(res.Model.Slope, 0)
	slope := cli.FormatSales(res.Model.Slope)
	if res.Model.Slope >= 0 {
		slope = "+" + slope
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{
			Label: "Trend",
			Value: slope + "/mo",
			Delta: fmt.Sprintf("%s fitted on %d months", cli.TrendArrow(slopeDir), len(v.History)),
			Trend: slopeDir,
		},
		{
			Label: "Next: " + cli.FormatMonth(next.Period),
			Value: cli.FormatSales(next.Forecast),
			Delta: cli.FormatSales(next.Lower) + " - " + cli.FormatSales(next.Upper),
			Color: t.Forecast,
		},
		{
			Label: "End: " + cli.FormatMonth(last.Period),
			Value: cli.FormatSales(last.Forecast),
			Delta: fmt.Sprintf("%d months ahead", len(res.Points)),
			Color: t.Forecast,
		},
		{
			Label: "95% band",
			Value: "± " + cli.FormatSales(forecast.Z*res.StdError),
			Delta: "residual sd " + cli.FormatSales(res.StdError),
		},
	}, cw))
	b.WriteString("\n")

	chartH := 9
	if a.isCompactLayout() {
		chartH = 6
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("%s: actual and %d-month forecast", v.Metric, len(res.Points)),
		components.BarChart(forecastBars(v.History, res.Points, t), components.CardInnerWidth(cw), chartH),
		cw,
	))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Export Table", renderExportRows(res.Rows, components.CardInnerWidth(cw)), cw))
	return b.String()
}

// forecastBars joins the trailing actuals and the projection into one bar
// series, the projection drawn in the forecast color.
func forecastBars(history []model.SeriesPoint, points []model.ForecastPoint, t theme.Theme) []components.Bar {
	if len(history) > forecastChartActuals {
		history = history[len(history)-forecastChartActuals:]
	}
	bars := make([]components.Bar, 0, len(history)+len(points))
	for _, p := range history {
		bars = append(bars, components.Bar{Label: p.Period.Format("Jan"), Value: p.Value, Color: t.Accent})
	}
	for _, p := range points {
		bars = append(bars, components.Bar{Label: p.Period.Format("Jan"), Value: p.Forecast, Color: t.Forecast})
	}
	return bars
}

// renderExportRows shows the table that `export` writes, trimmed to the
// rows around the forecast boundary.
func renderExportRows(rows []model.ExportRow, width int) string {
	t := theme.Active

	const maxRows = 18
	if len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}

	colW := min(max((width-10)/4-1, 9), 14)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	actualStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	forecastStyle := lipgloss.NewStyle().Foreground(t.Forecast).Background(t.Surface)
	bandStyle := lipgloss.NewStyle().Foreground(t.Band).Background(t.Surface)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %*s %*s %*s %*s",
		"Period", colW, "Actual", colW, "Forecast", colW, "Lower", colW, "Upper")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", 10+4*(colW+1))))

	for _, r := range rows {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(fmt.Sprintf("%-10s", r.Period.Format("2006-01"))))
		body.WriteString(actualStyle.Render(fmt.Sprintf(" %*s", colW, cli.FormatOptional(r.Actual))))
		body.WriteString(forecastStyle.Render(fmt.Sprintf(" %*s", colW, cli.FormatOptional(r.Forecast))))
		body.WriteString(bandStyle.Render(fmt.Sprintf(" %*s %*s", colW, cli.FormatOptional(r.Lower), colW, cli.FormatOptional(r.Upper))))
	}
	return body.String()
}
