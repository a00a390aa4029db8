package model

import "time"

// SummaryStats holds the top-level aggregate over a month range.
type SummaryStats struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Months int       `json:"months"`

	Totals []MetricTotal `json:"totals"`
}

// Total returns the aggregate for metric and whether it was found.
func (s SummaryStats) Total(metric string) (MetricTotal, bool) {
	for _, t := range s.Totals {
		if t.Metric == metric {
			return t, true
		}
	}
	return MetricTotal{}, false
}

// MetricTotal holds aggregated figures for a single metric column.
type MetricTotal struct {
	Metric   string    `json:"metric"`
	Sum      float64   `json:"sum"`
	Average  float64   `json:"average"` // per month
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	PeakAt   time.Time `json:"peak_at"`
	Latest   float64   `json:"latest"`
	Previous float64   `json:"previous"` // month before Latest, 0 when only one month
}

// MonthStats holds every metric for one calendar month.
type MonthStats struct {
	Month  time.Time          `json:"month"`
	Values map[string]float64 `json:"values"`
}

// Cell returns the month's value for metric, nil when the feed left it blank.
func (m MonthStats) Cell(metric string) *float64 {
	v, ok := m.Values[metric]
	if !ok {
		return nil
	}
	return &v
}

// ProductShare holds a product's contribution to the comparison chart.
type ProductShare struct {
	Product        string  `json:"product"`
	Sum            float64 `json:"sum"`
	SharePercent   float64 `json:"share_percent"`
	TrendDirection int     `json:"trend"` // -1, 0, +1 vs previous period
}
