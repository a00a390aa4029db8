package forecast

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"
)

const eps = 1e-9

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func series(start time.Time, values ...float64) []model.SeriesPoint {
	out := make([]model.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = model.SeriesPoint{Period: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestFit_ExactLine(t *testing.T) {
	values := make([]float64, 12)
	for i := range values {
		values[i] = 250.5 - 3.25*float64(i)
	}

	m, err := Fit(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(m.Intercept, 250.5) {
		t.Errorf("Intercept = %f, want 250.5", m.Intercept)
	}
	if !approx(m.Slope, -3.25) {
		t.Errorf("Slope = %f, want -3.25", m.Slope)
	}

	stdErr, err := ResidualStdError(values, m.Fitted(len(values)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(stdErr, 0) {
		t.Errorf("StdError = %g, want 0", stdErr)
	}
}

func TestFit_NoisySeries(t *testing.T) {
	values := []float64{2, 2, 6, 6, 10, 10}
	m, err := Fit(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// mean x = 2.5, mean y = 6, Sxy = 32, Sxx = 17.5
	if !approx(m.Slope, 64.0/35.0) {
		t.Errorf("Slope = %f, want %f", m.Slope, 64.0/35.0)
	}
	if !approx(m.Intercept, 10.0/7.0) {
		t.Errorf("Intercept = %f, want %f", m.Intercept, 10.0/7.0)
	}
}

func TestFit_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"empty", nil},
		{"single point", []float64{42}},
		{"nan", []float64{1, math.NaN(), 3}},
		{"inf", []float64{1, 2, math.Inf(1)}},
		{"negative inf", []float64{math.Inf(-1), 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.values)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Fit(%v) error = %v, want ErrInvalidInput", tt.values, err)
			}
		})
	}
}

func TestExtrapolate_PeriodsAndValues(t *testing.T) {
	m := Model{Intercept: 100, Slope: 10}
	points, err := Extrapolate(m, 3, month(2024, time.March), 4, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("len(points) = %d, want 4", len(points))
	}

	wantPeriods := []time.Time{
		month(2024, time.April), month(2024, time.May),
		month(2024, time.June), month(2024, time.July),
	}
	wantValues := []float64{130, 140, 150, 160}
	for i, p := range points {
		if !p.Period.Equal(wantPeriods[i]) {
			t.Errorf("points[%d].Period = %s, want %s", i, p.Period, wantPeriods[i])
		}
		if !approx(p.Forecast, wantValues[i]) {
			t.Errorf("points[%d].Forecast = %f, want %f", i, p.Forecast, wantValues[i])
		}
	}
}

func TestExtrapolate_YearBoundaryAndMidMonth(t *testing.T) {
	last := time.Date(2023, time.November, 17, 15, 4, 0, 0, time.UTC)
	points, err := Extrapolate(Model{}, 5, last, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{month(2023, time.December), month(2024, time.January), month(2024, time.February)}
	for i, p := range points {
		if !p.Period.Equal(want[i]) {
			t.Errorf("points[%d].Period = %s, want %s", i, p.Period, want[i])
		}
	}
}

func TestExtrapolate_StrictlyIncreasingMonths(t *testing.T) {
	points, err := Extrapolate(Model{Intercept: 1, Slope: 1}, 10, month(2022, time.January), 24, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("len(points) = %d, want 24", len(points))
	}
	prev := model.MonthKey(month(2022, time.January))
	for i, p := range points {
		key := model.MonthKey(p.Period)
		if key != prev+1 {
			t.Fatalf("points[%d] month key = %d, want %d", i, key, prev+1)
		}
		if p.Period.Day() != 1 {
			t.Fatalf("points[%d].Period day = %d, want 1", i, p.Period.Day())
		}
		prev = key
	}
}

func TestExtrapolate_HorizonBounds(t *testing.T) {
	last := month(2024, time.January)
	tests := []struct {
		name    string
		horizon int
		max     int
		wantErr bool
	}{
		{"zero", 0, 24, true},
		{"negative", -3, 24, true},
		{"at cap", 24, 24, false},
		{"above cap", 25, 24, true},
		{"uncapped", 120, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extrapolate(Model{}, 3, last, tt.horizon, tt.max)
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestResidualStdError(t *testing.T) {
	actual := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	fitted := make([]float64, len(actual))
	// Residuals equal the sample; sample std dev is sqrt(32/7).
	got, err := ResidualStdError(actual, fitted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Sqrt(32.0 / 7.0)
	if !approx(got, want) {
		t.Errorf("StdError = %f, want %f", got, want)
	}
}

func TestResidualStdError_InvalidInput(t *testing.T) {
	if _, err := ResidualStdError([]float64{5}, []float64{5}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("single point error = %v, want ErrInvalidInput", err)
	}
	if _, err := ResidualStdError([]float64{1, 2}, []float64{1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("length mismatch error = %v, want ErrInvalidInput", err)
	}
	if _, err := ResidualStdError([]float64{1, math.NaN()}, []float64{1, 2}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nan error = %v, want ErrInvalidInput", err)
	}
}

func TestApplyBand_SymmetricConstantWidth(t *testing.T) {
	points, err := Extrapolate(Model{Intercept: 50, Slope: 2}, 6, month(2024, time.June), 6, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const stdErr = 3.5
	banded := ApplyBand(points, stdErr)

	for i, p := range banded {
		up := p.Upper - p.Forecast
		down := p.Forecast - p.Lower
		if !approx(up, Z*stdErr) || !approx(down, Z*stdErr) {
			t.Errorf("point %d band = (-%f, +%f), want +/-%f", i, down, up, Z*stdErr)
		}
	}
	if points[0].Lower != points[0].Forecast {
		t.Error("ApplyBand modified its input slice")
	}
}

func TestAssemble_OuterJoin(t *testing.T) {
	history := series(month(2024, time.January), 10, 20, 30)
	points := []model.ForecastPoint{
		{Period: month(2024, time.March), Forecast: 31, Lower: 29, Upper: 33},
		{Period: month(2024, time.April), Forecast: 40, Lower: 38, Upper: 42},
	}

	rows := Assemble(history, points)
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Period.Before(rows[i].Period) {
			t.Fatalf("rows not strictly ascending at %d", i)
		}
	}

	if rows[0].Actual == nil || *rows[0].Actual != 10 || rows[0].Forecast != nil {
		t.Errorf("Jan row = %+v, want actual only", rows[0])
	}
	if rows[2].Actual == nil || rows[2].Forecast == nil || *rows[2].Forecast != 31 {
		t.Errorf("Mar row = %+v, want actual and forecast", rows[2])
	}
	if rows[3].Actual != nil || rows[3].Upper == nil || *rows[3].Upper != 42 {
		t.Errorf("Apr row = %+v, want forecast only", rows[3])
	}
}

func TestAssemble_Empty(t *testing.T) {
	if rows := Assemble(nil, nil); len(rows) != 0 {
		t.Fatalf("len(rows) = %d, want 0", len(rows))
	}
}

func TestEngineRun_WorkedExample(t *testing.T) {
	history := series(month(2024, time.January), 100, 110, 120)
	e := NewEngine(DefaultMaxHorizon)

	res, err := e.Run(Request{Metric: "Total Sales", History: history, Filtered: history, Horizon: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(res.Model.Intercept, 100) || !approx(res.Model.Slope, 10) {
		t.Errorf("Model = %+v, want intercept 100 slope 10", res.Model)
	}
	if !approx(res.StdError, 0) {
		t.Errorf("StdError = %g, want 0", res.StdError)
	}
	if len(res.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2", len(res.Points))
	}

	want := []struct {
		period time.Time
		value  float64
	}{
		{month(2024, time.April), 130},
		{month(2024, time.May), 140},
	}
	for i, w := range want {
		p := res.Points[i]
		if !p.Period.Equal(w.period) {
			t.Errorf("Points[%d].Period = %s, want %s", i, p.Period, w.period)
		}
		if !approx(p.Forecast, w.value) || !approx(p.Lower, w.value) || !approx(p.Upper, w.value) {
			t.Errorf("Points[%d] = %+v, want forecast=lower=upper=%f", i, p, w.value)
		}
	}
	if len(res.Rows) != 5 {
		t.Errorf("len(Rows) = %d, want 5", len(res.Rows))
	}
}

func TestEngineRun_FilterDoesNotChangeFit(t *testing.T) {
	history := series(month(2023, time.January), 5, 9, 4, 12, 15, 11, 18, 22, 19, 25)
	e := NewEngine(DefaultMaxHorizon)

	full, err := e.Run(Request{History: history, Filtered: history, Horizon: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrow, err := e.Run(Request{History: history, Filtered: history[7:], Horizon: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if full.Model != narrow.Model || full.StdError != narrow.StdError {
		t.Errorf("filtered run changed the fit: %+v/%f vs %+v/%f",
			full.Model, full.StdError, narrow.Model, narrow.StdError)
	}
	if !reflect.DeepEqual(full.Points, narrow.Points) {
		t.Error("filtered run changed the forecast points")
	}
	// 3 filtered months + 3 forecast months.
	if len(narrow.Rows) != 6 {
		t.Errorf("len(Rows) = %d, want 6", len(narrow.Rows))
	}
	if full.StdError <= 0 {
		t.Errorf("StdError = %f, want > 0 for a noisy series", full.StdError)
	}
}

func TestEngineRun_Idempotent(t *testing.T) {
	history := series(month(2021, time.June), 3, 1, 4, 1, 5, 9, 2, 6)
	req := Request{Metric: "Product_A_Sales", History: history, Filtered: history[2:], Horizon: 6}
	e := NewEngine(12)

	a, err := e.Run(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Run(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two runs with identical input differ")
	}
}

func TestEngineRun_NoPartialResult(t *testing.T) {
	e := NewEngine(6)
	history := series(month(2024, time.January), 1, 2, 3)

	tests := []struct {
		name string
		req  Request
	}{
		{"single point", Request{History: history[:1], Horizon: 2}},
		{"empty history", Request{Horizon: 2}},
		{"horizon over cap", Request{History: history, Horizon: 7}},
		{"zero horizon", Request{History: history, Horizon: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Run(tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if res != nil {
				t.Fatalf("Result = %+v, want nil", res)
			}
		})
	}
}
