package forecast

import (
	"sort"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"
)

// Assemble outer-joins history and forecast points on their month, sorted
// ascending. Inputs are expected to hold one entry per month; if a month
// repeats within an input the later entry wins.
func Assemble(history []model.SeriesPoint, points []model.ForecastPoint) []model.ExportRow {
	rows := make(map[int]*model.ExportRow, len(history)+len(points))

	row := func(t time.Time) *model.ExportRow {
		key := model.MonthKey(t)
		r, ok := rows[key]
		if !ok {
			r = &model.ExportRow{Period: model.MonthStart(t)}
			rows[key] = r
		}
		return r
	}

	for _, h := range history {
		v := h.Value
		row(h.Period).Actual = &v
	}
	for _, p := range points {
		f, lo, hi := p.Forecast, p.Lower, p.Upper
		r := row(p.Period)
		r.Forecast = &f
		r.Lower = &lo
		r.Upper = &hi
	}

	out := make([]model.ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.Before(out[j].Period)
	})
	return out
}
