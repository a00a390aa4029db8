package pipeline

import (
	"time"

	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/model"
)

// Query is one filter selection over a loaded feed.
type Query struct {
	From    time.Time // zero: first month of the feed
	To      time.Time // zero: last month of the feed
	Metric  string    // resolved with MatchMetric
	Horizon int
}

// View is everything the dashboards show for one Query.
type View struct {
	Metric string
	From   time.Time
	To     time.Time

	Records  []model.Record
	Stats    model.SummaryStats
	Previous model.SummaryStats
	Months   []model.MonthStats
	Shares   []model.ProductShare

	// History is the metric over the whole feed, Filtered over [From, To].
	History  []model.SeriesPoint
	Filtered []model.SeriesPoint

	// Forecast is nil when ForecastErr is set. A failed forecast does not
	// fail the view.
	Forecast    *forecast.Result
	ForecastErr error
}

// BuildView filters the feed to q's range and computes summary, comparison
// and forecast for q's metric. It fails only when the metric is unknown.
func BuildView(feed *model.Feed, q Query, engine *forecast.Engine) (*View, error) {
	metric, err := MatchMetric(feed, q.Metric)
	if err != nil {
		return nil, err
	}

	v := &View{Metric: metric}
	if len(feed.Records) > 0 {
		v.From, v.To = ResolveRange(feed, q.From, q.To)
	}
	v.Records = FilterByRange(feed.Records, v.From, v.To)

	prevFrom, prevTo := PreviousRange(v.From, v.To)
	var prevRecords []model.Record
	if !prevFrom.IsZero() {
		prevRecords = FilterByRange(feed.Records, prevFrom, prevTo)
	}

	v.Stats = Aggregate(feed, v.Records)
	v.Previous = Aggregate(feed, prevRecords)
	v.Months = AggregateMonths(feed, v.Records)
	v.Shares = AggregateProducts(feed, v.Records, prevRecords)

	if v.History, err = Series(feed, feed.Records, metric); err != nil {
		return nil, err
	}
	if v.Filtered, err = Series(feed, v.Records, metric); err != nil {
		return nil, err
	}

	v.Forecast, v.ForecastErr = engine.Run(forecast.Request{
		Metric:   metric,
		History:  v.History,
		Filtered: v.Filtered,
		Horizon:  q.Horizon,
	})
	return v, nil
}
