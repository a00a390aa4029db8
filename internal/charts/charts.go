// Package charts renders PNG charts of the sales feed and forecast.
package charts

import (
	"fmt"
	"io"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 420
)

// Series colors, in metric order.
var palette = []drawing.Color{
	drawing.ColorFromHex("4385BE"),
	drawing.ColorFromHex("DA702C"),
	drawing.ColorFromHex("879A39"),
	drawing.ColorFromHex("8B7EC8"),
	drawing.ColorFromHex("D0A215"),
	drawing.ColorFromHex("3AA99F"),
}

var (
	colorActual   = drawing.ColorFromHex("4385BE")
	colorForecast = drawing.ColorFromHex("DA702C")
	colorBand     = drawing.ColorFromHex("878580")
)

// MaxSide bounds either canvas dimension.
const MaxSide = 4096

// Size is a chart canvas size; zero fields use the defaults and larger
// fields are clamped to MaxSide.
type Size struct {
	Width  int
	Height int
}

func (s Size) resolve() (int, int) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return min(w, MaxSide), min(h, MaxSide)
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// timeSeries pads a single point to two so go-chart can compute an x range.
func timeSeries(name string, xs []time.Time, ys []float64, style chart.Style) chart.TimeSeries {
	if len(xs) == 1 {
		xs = []time.Time{xs[0], xs[0].AddDate(0, 0, 1)}
		ys = []float64{ys[0], ys[0]}
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

func monthAxis() chart.XAxis {
	return chart.XAxis{
		Name:           "Month",
		ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
	}
}

func render(c *chart.Chart, w io.Writer) error {
	c.Elements = []chart.Renderable{chart.Legend(c)}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering %q: %w", c.Title, err)
	}
	return nil
}

// Trend draws one line per metric over the given records.
func Trend(w io.Writer, feed *model.Feed, records []model.Record, size Size) error {
	if len(records) == 0 {
		return fmt.Errorf("trend chart: no records in range")
	}

	xs := make([]time.Time, len(records))
	for i, r := range records {
		xs[i] = r.Month
	}

	var series []chart.Series
	for i, m := range feed.Metrics {
		ys := make([]float64, len(records))
		for j, r := range records {
			ys[j] = r.Value(m)
		}
		series = append(series, timeSeries(m, xs, ys, lineStyle(palette[i%len(palette)])))
	}

	width, height := size.resolve()
	c := chart.Chart{
		Title:      "Sales Trend Over Time",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      monthAxis(),
		YAxis:      chart.YAxis{Name: "Sales"},
		Series:     series,
	}
	return render(&c, w)
}

// Compare draws one bar per product total.
func Compare(w io.Writer, shares []model.ProductShare, size Size) error {
	if len(shares) == 0 {
		return fmt.Errorf("compare chart: no products")
	}

	width, height := size.resolve()
	bars := make([]chart.Value, len(shares))
	for i, s := range shares {
		col := palette[i%len(palette)]
		bars[i] = chart.Value{
			Label: s.Product,
			Value: s.Sum,
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}

	barWidth := width / (2*len(bars) + 1)
	if barWidth > 120 {
		barWidth = 120
	}
	c := chart.BarChart{
		Title:      "Product Comparison",
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering %q: %w", c.Title, err)
	}
	return nil
}

// Forecast draws the actual series, the projected line and the band edges.
func Forecast(w io.Writer, metric string, history []model.SeriesPoint, points []model.ForecastPoint, size Size) error {
	if len(history) == 0 && len(points) == 0 {
		return fmt.Errorf("forecast chart: nothing to draw")
	}

	var series []chart.Series
	if len(history) > 0 {
		xs := make([]time.Time, len(history))
		ys := make([]float64, len(history))
		for i, p := range history {
			xs[i], ys[i] = p.Period, p.Value
		}
		series = append(series, timeSeries("Actual", xs, ys, lineStyle(colorActual)))
	}

	if len(points) > 0 {
		xs := make([]time.Time, len(points))
		fc := make([]float64, len(points))
		lo := make([]float64, len(points))
		hi := make([]float64, len(points))
		for i, p := range points {
			xs[i], fc[i], lo[i], hi[i] = p.Period, p.Forecast, p.Lower, p.Upper
		}

		band := chart.Style{StrokeColor: colorBand, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
		fcStyle := lineStyle(colorForecast)
		fcStyle.StrokeDashArray = []float64{8, 4}

		series = append(series,
			timeSeries("Forecast", xs, fc, fcStyle),
			timeSeries("Lower", xs, lo, band),
			timeSeries("Upper", xs, hi, band),
		)
	}

	width, height := size.resolve()
	c := chart.Chart{
		Title:      fmt.Sprintf("%s Forecast", metric),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      monthAxis(),
		YAxis:      chart.YAxis{Name: metric},
		Series:     series,
	}
	return render(&c, w)
}
