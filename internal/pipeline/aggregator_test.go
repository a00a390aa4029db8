package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"
)

func TestAggregate(t *testing.T) {
	f := testFeed(4)
	stats := Aggregate(f, f.Records)

	if stats.Months != 4 {
		t.Errorf("Months = %d, want 4", stats.Months)
	}
	if !stats.From.Equal(month(2023, time.January)) || !stats.To.Equal(month(2023, time.April)) {
		t.Errorf("range = %s..%s", stats.From, stats.To)
	}

	total, ok := stats.Total("Total Sales")
	if !ok {
		t.Fatal("Total Sales missing from totals")
	}
	// A: 100+110+120+130, B: 50+55+60+65
	if total.Sum != 690 {
		t.Errorf("Sum = %f, want 690", total.Sum)
	}
	if math.Abs(total.Average-172.5) > 1e-9 {
		t.Errorf("Average = %f, want 172.5", total.Average)
	}
	if total.Min != 150 || total.Max != 195 {
		t.Errorf("Min/Max = %f/%f, want 150/195", total.Min, total.Max)
	}
	if !total.PeakAt.Equal(month(2023, time.April)) {
		t.Errorf("PeakAt = %s, want Apr 2023", total.PeakAt)
	}
	if total.Latest != 195 || total.Previous != 180 {
		t.Errorf("Latest/Previous = %f/%f, want 195/180", total.Latest, total.Previous)
	}
}

func TestAggregate_DecimalSums(t *testing.T) {
	f := testFeed(0)
	for i := 0; i < 10; i++ {
		f.Records = append(f.Records, model.Record{
			Month:  month(2020, time.January).AddDate(0, i, 0),
			Values: map[string]float64{"Product_A_Sales": 0.1},
		})
	}
	total, _ := Aggregate(f, f.Records).Total("Product_A_Sales")
	if total.Sum != 1.0 {
		t.Errorf("Sum = %.17f, want exactly 1", total.Sum)
	}
}

func TestAggregate_Empty(t *testing.T) {
	f := testFeed(3)
	stats := Aggregate(f, nil)
	if stats.Months != 0 {
		t.Errorf("Months = %d, want 0", stats.Months)
	}
	if len(stats.Totals) != 3 {
		t.Fatalf("Totals = %d, want one per metric", len(stats.Totals))
	}
	for _, tot := range stats.Totals {
		if tot.Sum != 0 {
			t.Errorf("%s Sum = %f, want 0", tot.Metric, tot.Sum)
		}
	}
}

func TestFilterByRange_Inclusive(t *testing.T) {
	f := testFeed(12)

	got := FilterByRange(f.Records, month(2023, time.March), month(2023, time.May))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (inclusive on both ends)", len(got))
	}
	if !got[0].Month.Equal(month(2023, time.March)) || !got[2].Month.Equal(month(2023, time.May)) {
		t.Errorf("range = %s..%s", got[0].Month, got[2].Month)
	}

	// Mid-month bounds behave like their month start.
	got = FilterByRange(f.Records, time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC), time.Time{})
	if len(got) != 10 {
		t.Errorf("open upper bound len = %d, want 10", len(got))
	}

	if got := FilterByRange(f.Records, time.Time{}, time.Time{}); len(got) != 12 {
		t.Errorf("unbounded len = %d, want 12", len(got))
	}
	if got := FilterByRange(f.Records, month(2023, time.June), month(2023, time.May)); len(got) != 0 {
		t.Errorf("inverted range len = %d, want 0", len(got))
	}
}

func TestPreviousRange(t *testing.T) {
	from, to := PreviousRange(month(2024, time.April), month(2024, time.June))
	if !from.Equal(month(2024, time.January)) || !to.Equal(month(2024, time.March)) {
		t.Errorf("PreviousRange = %s..%s, want Jan..Mar 2024", from, to)
	}

	from, to = PreviousRange(month(2024, time.January), month(2024, time.January))
	if !from.Equal(month(2023, time.December)) || !to.Equal(month(2023, time.December)) {
		t.Errorf("single month PreviousRange = %s..%s, want Dec 2023", from, to)
	}

	if from, _ := PreviousRange(time.Time{}, month(2024, time.January)); !from.IsZero() {
		t.Error("zero from should yield a zero range")
	}
}

func TestResolveRange(t *testing.T) {
	f := testFeed(6)
	from, to := ResolveRange(f, time.Time{}, month(2023, time.March))
	if !from.Equal(month(2023, time.January)) || !to.Equal(month(2023, time.March)) {
		t.Errorf("ResolveRange = %s..%s", from, to)
	}
}

func TestSeries(t *testing.T) {
	f := testFeed(3)
	pts, err := Series(f, f.Records, "Product_B_Sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 3 || pts[2].Value != 60 {
		t.Errorf("Series = %+v", pts)
	}

	if _, err := Series(f, f.Records, "Product_C_Sales"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("error = %v, want ErrUnknownMetric", err)
	}
}

func TestMatchMetric(t *testing.T) {
	f := testFeed(1)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "Total Sales", false},
		{"total sales", "Total Sales", false},
		{"product_a", "Product_A_Sales", false},
		{"total", "Total Sales", false},
		{"product", "", true},
		{"widgets", "", true},
	}
	for _, tt := range tests {
		got, err := MatchMetric(f, tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMetric) {
				t.Errorf("MatchMetric(%q) error = %v, want ErrUnknownMetric", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("MatchMetric(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestAggregateMonths(t *testing.T) {
	f := testFeed(3)
	months := AggregateMonths(f, f.Records)
	if len(months) != 3 {
		t.Fatalf("len = %d, want 3", len(months))
	}
	if months[1].Values["Total Sales"] != 165 {
		t.Errorf("Feb Total Sales = %f, want 165", months[1].Values["Total Sales"])
	}
}
