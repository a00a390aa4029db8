// Package model defines domain types for the sales feed, its aggregates, and forecasts.
package model

import (
	"math"
	"time"
)

// Record is one row of the sales feed: a calendar month and its metric values.
// A blank or unreadable cell has no entry in Values.
type Record struct {
	Month  time.Time          `json:"month"`
	Values map[string]float64 `json:"values"`
}

// Value returns the record's value for metric, or 0 when the cell is missing.
func (r Record) Value(metric string) float64 {
	return r.Values[metric]
}

// Lookup returns the value for metric and whether the cell holds a finite number.
func (r Record) Lookup(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Feed is a parsed monthly sales table.
type Feed struct {
	Source      string   `json:"source"`
	MonthColumn string   `json:"month_column"`
	TotalColumn string   `json:"total_column"`
	Metrics     []string `json:"metrics"` // column order as read
	Records     []Record `json:"records"` // ascending by Month, one per month
	// DerivedTotal is set when TotalColumn was absent and computed from the products.
	DerivedTotal bool `json:"derived_total,omitempty"`
}

// Products returns every metric other than the total column.
func (f *Feed) Products() []string {
	var out []string
	for _, m := range f.Metrics {
		if m != f.TotalColumn {
			out = append(out, m)
		}
	}
	return out
}

// HasMetric reports whether the feed carries a column named metric.
func (f *Feed) HasMetric(metric string) bool {
	for _, m := range f.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// Span returns the first and last month of the feed.
func (f *Feed) Span() (time.Time, time.Time) {
	if len(f.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return f.Records[0].Month, f.Records[len(f.Records)-1].Month
}

// SeriesPoint is a single (period, value) observation. Period is a month start.
type SeriesPoint struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey returns a sortable integer key (year*12 + month index) for t.
func MonthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
