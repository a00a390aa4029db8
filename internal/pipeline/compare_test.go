package pipeline

import (
	"math"
	"testing"
	"time"
)

func TestAggregateProducts(t *testing.T) {
	f := testFeed(6)
	cur := FilterByRange(f.Records, month(2023, time.April), month(2023, time.June))
	prev := FilterByRange(f.Records, month(2023, time.January), month(2023, time.March))

	shares := AggregateProducts(f, cur, prev)
	if len(shares) != 2 {
		t.Fatalf("len = %d, want 2 products", len(shares))
	}
	if shares[0].Product != "Product_A_Sales" {
		t.Errorf("first = %s, want Product_A_Sales (largest)", shares[0].Product)
	}
	// A: 130+140+150 = 420, B: 65+70+75 = 210
	if shares[0].Sum != 420 || shares[1].Sum != 210 {
		t.Errorf("sums = %f/%f, want 420/210", shares[0].Sum, shares[1].Sum)
	}
	if math.Abs(shares[0].SharePercent-200.0/3.0) > 1e-9 {
		t.Errorf("share = %f, want 66.67", shares[0].SharePercent)
	}
	for _, s := range shares {
		if s.TrendDirection != 1 {
			t.Errorf("%s TrendDirection = %d, want +1", s.Product, s.TrendDirection)
		}
	}
}

func TestAggregateProducts_NoRecords(t *testing.T) {
	shares := AggregateProducts(testFeed(2), nil, nil)
	for _, s := range shares {
		if s.SharePercent != 0 || s.TrendDirection != 0 {
			t.Errorf("%+v, want zero share and trend", s)
		}
	}
}
