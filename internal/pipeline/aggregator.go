// Package pipeline orchestrates feed loading, caching, filtering, and metric aggregation.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownMetric is returned when a metric name matches no feed column.
var ErrUnknownMetric = errors.New("pipeline: unknown metric")

// Aggregate computes per-metric totals over the given records. Missing cells
// are skipped, so Average is over the months that report the metric.
func Aggregate(feed *model.Feed, records []model.Record) model.SummaryStats {
	stats := model.SummaryStats{Months: len(records)}
	if len(records) > 0 {
		stats.From = records[0].Month
		stats.To = records[len(records)-1].Month
	}

	for _, metric := range feed.Metrics {
		total := model.MetricTotal{Metric: metric}
		if len(records) == 0 {
			stats.Totals = append(stats.Totals, total)
			continue
		}

		values := make([]float64, 0, len(records))
		months := make([]time.Time, 0, len(records))
		sum := decimal.Zero
		for _, r := range records {
			v, ok := r.Lookup(metric)
			if !ok {
				continue
			}
			values = append(values, v)
			months = append(months, r.Month)
			sum = sum.Add(decimal.NewFromFloat(v))
		}
		if len(values) == 0 {
			stats.Totals = append(stats.Totals, total)
			continue
		}

		total.Sum = sum.InexactFloat64()
		total.Average = stat.Mean(values, nil)
		total.Min = floats.Min(values)
		total.Max = floats.Max(values)
		total.PeakAt = months[floats.MaxIdx(values)]
		total.Latest = values[len(values)-1]
		if len(values) > 1 {
			total.Previous = values[len(values)-2]
		}
		stats.Totals = append(stats.Totals, total)
	}

	return stats
}

// AggregateMonths returns one MonthStats per record, oldest first. Missing
// cells have no entry in Values.
func AggregateMonths(feed *model.Feed, records []model.Record) []model.MonthStats {
	months := make([]model.MonthStats, 0, len(records))
	for _, r := range records {
		ms := model.MonthStats{Month: r.Month, Values: make(map[string]float64, len(feed.Metrics))}
		for _, m := range feed.Metrics {
			if v, ok := r.Lookup(m); ok {
				ms.Values[m] = v
			}
		}
		months = append(months, ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}

// Series extracts the ordered (month, value) series for metric. A missing
// cell becomes NaN, which the forecast engine rejects.
func Series(feed *model.Feed, records []model.Record, metric string) ([]model.SeriesPoint, error) {
	if !feed.HasMetric(metric) {
		return nil, fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
	}
	points := make([]model.SeriesPoint, len(records))
	for i, r := range records {
		v, ok := r.Lookup(metric)
		if !ok {
			v = math.NaN()
		}
		points[i] = model.SeriesPoint{Period: r.Month, Value: v}
	}
	return points, nil
}

// MatchMetric resolves a user-supplied name to a feed column. An exact
// case-insensitive match wins over a unique substring match.
func MatchMetric(feed *model.Feed, name string) (string, error) {
	if name == "" {
		return feed.TotalColumn, nil
	}
	for _, m := range feed.Metrics {
		if strings.EqualFold(m, name) {
			return m, nil
		}
	}

	var matches []string
	for _, m := range feed.Metrics {
		if containsIgnoreCase(m, name) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%q (have %s): %w", name, strings.Join(feed.Metrics, ", "), ErrUnknownMetric)
	default:
		return "", fmt.Errorf("%q is ambiguous (%s): %w", name, strings.Join(matches, ", "), ErrUnknownMetric)
	}
}

// FilterByRange returns records whose month falls within [from, to], both
// ends inclusive. A zero bound is open.
func FilterByRange(records []model.Record, from, to time.Time) []model.Record {
	if from.IsZero() && to.IsZero() {
		return records
	}
	if !from.IsZero() {
		from = model.MonthStart(from)
	}
	if !to.IsZero() {
		to = model.MonthStart(to)
	}

	var result []model.Record
	for _, r := range records {
		m := model.MonthStart(r.Month)
		if !from.IsZero() && m.Before(from) {
			continue
		}
		if !to.IsZero() && m.After(to) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// ResolveRange fills zero bounds from the feed's first and last month.
func ResolveRange(feed *model.Feed, from, to time.Time) (time.Time, time.Time) {
	first, last := feed.Span()
	if from.IsZero() {
		from = first
	}
	if to.IsZero() {
		to = last
	}
	return model.MonthStart(from), model.MonthStart(to)
}

// PreviousRange returns the window of equal month length ending the month before from.
func PreviousRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return time.Time{}, time.Time{}
	}
	n := model.MonthKey(to) - model.MonthKey(from) + 1
	from = model.MonthStart(from)
	return from.AddDate(0, -n, 0), from.AddDate(0, -1, 0)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
