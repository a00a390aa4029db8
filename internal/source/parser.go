// Package source discovers and parses monthly sales feeds from CSV files and SQL tables.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"
)

// ErrNoMonthColumn is returned when the header lacks the configured month column.
var ErrNoMonthColumn = errors.New("source: month column not found")

// monthLayouts are tried in order. US month/day order wins over day/month.
var monthLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"2006.01.02",
	"Jan 2006",
	"January 2006",
}

// ParseResult holds the output of parsing a single feed.
type ParseResult struct {
	Feed        *model.Feed
	ParseErrors int // rows or cells that could not be read
	Err         error
}

// ParseFile reads a CSV feed from disk.
func ParseFile(df DiscoveredFile, opts Options) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	res := Parse(f, opts)
	if res.Feed != nil {
		res.Feed.Source = df.Path
	}
	return res
}

// Parse reads a CSV feed with a header row. Every column except the month
// column that holds at least one number becomes a metric.
func Parse(r io.Reader, opts Options) ParseResult {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{Err: fmt.Errorf("reading header: empty feed")}
		}
		return ParseResult{Err: fmt.Errorf("reading header: %w", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParseResult{Err: fmt.Errorf("reading rows: %w", err)}
		}
		rows = append(rows, rec)
	}

	return build(header, rows, opts)
}

// build turns a header and string cells into a feed. Shared by CSV and SQL loaders.
func build(header []string, rows [][]string, opts Options) ParseResult {
	opts = opts.withDefaults()

	monthIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if strings.EqualFold(header[i], opts.MonthColumn) {
			monthIdx = i
		}
	}
	if monthIdx < 0 {
		return ParseResult{Err: fmt.Errorf("column %q: %w", opts.MonthColumn, ErrNoMonthColumn)}
	}

	// A column is numeric when at least one non-empty cell parses.
	numeric := make([]bool, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if i == monthIdx || i >= len(header) || numeric[i] {
				continue
			}
			if _, ok := parseNumber(cell); ok {
				numeric[i] = true
			}
		}
	}

	feed := &model.Feed{
		MonthColumn: header[monthIdx],
		TotalColumn: opts.TotalColumn,
	}
	for i, h := range header {
		if numeric[i] && h != "" {
			feed.Metrics = append(feed.Metrics, h)
		}
	}

	var parseErrors int
	byMonth := make(map[int]model.Record, len(rows))
	for _, row := range rows {
		if monthIdx >= len(row) {
			parseErrors++
			continue
		}
		month, ok := parseMonth(row[monthIdx])
		if !ok {
			parseErrors++
			continue
		}

		rec := model.Record{Month: month, Values: make(map[string]float64, len(feed.Metrics)+1)}
		for i, h := range header {
			if !numeric[i] || h == "" {
				continue
			}
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			v, ok := parseNumber(row[i])
			if !ok {
				parseErrors++
				continue
			}
			rec.Values[h] = v
		}
		// Later rows for the same month replace earlier ones.
		byMonth[model.MonthKey(month)] = rec
	}

	feed.Records = make([]model.Record, 0, len(byMonth))
	for _, rec := range byMonth {
		feed.Records = append(feed.Records, rec)
	}
	sort.Slice(feed.Records, func(i, j int) bool {
		return feed.Records[i].Month.Before(feed.Records[j].Month)
	})

	if !feed.HasMetric(feed.TotalColumn) && len(feed.Metrics) > 0 {
		products := feed.Metrics
		for i := range feed.Records {
			var (
				sum     float64
				present bool
			)
			for _, p := range products {
				if v, ok := feed.Records[i].Lookup(p); ok {
					sum += v
					present = true
				}
			}
			if present {
				feed.Records[i].Values[feed.TotalColumn] = sum
			}
		}
		feed.Metrics = append(append([]string(nil), products...), feed.TotalColumn)
		feed.DerivedTotal = true
	}

	return ParseResult{Feed: feed, ParseErrors: parseErrors}
}

func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.MonthStart(t), true
		}
	}
	return time.Time{}, false
}

// ParseMonth parses a user-supplied month or date (e.g. a --from flag).
func ParseMonth(s string) (time.Time, error) {
	t, ok := parseMonth(s)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized month %q (want YYYY-MM or YYYY-MM-DD)", s)
	}
	return t, nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
