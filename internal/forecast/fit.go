// Package forecast fits a linear trend to a monthly series and projects it
// forward with a constant-width confidence band.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput is returned for empty or non-finite series, out-of-range
// horizons, and series too short for a residual standard deviation.
var ErrInvalidInput = errors.New("forecast: invalid input")

// Model is a line mapping a 0-based positional month index to a metric value.
type Model struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// At evaluates the line at index.
func (m Model) At(index int) float64 {
	return m.Intercept + m.Slope*float64(index)
}

// Fitted returns the line evaluated at indices 0..n-1.
func (m Model) Fitted(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = m.At(i)
	}
	return out
}

// Fit runs an ordinary least-squares regression of values on their positions.
// A single value is rejected: its slope is undefined and no band can be built
// from one residual.
func Fit(values []float64) (Model, error) {
	if len(values) == 0 {
		return Model{}, fmt.Errorf("fitting empty series: %w", ErrInvalidInput)
	}
	if len(values) == 1 {
		return Model{}, fmt.Errorf("fitting single-point series: %w", ErrInvalidInput)
	}
	if err := checkFinite(values); err != nil {
		return Model{}, err
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return Model{}, fmt.Errorf("fitting series: non-finite coefficients: %w", ErrInvalidInput)
	}
	return Model{Intercept: alpha, Slope: beta}, nil
}

// Extrapolate projects horizon points at indices n..n+horizon-1. Periods are the
// month starts following last. A maxHorizon of 0 or less disables the cap.
// Lower and Upper equal Forecast until a band is applied.
func Extrapolate(m Model, n int, last time.Time, horizon, maxHorizon int) ([]model.ForecastPoint, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d below 1: %w", horizon, ErrInvalidInput)
	}
	if maxHorizon > 0 && horizon > maxHorizon {
		return nil, fmt.Errorf("horizon %d above maximum %d: %w", horizon, maxHorizon, ErrInvalidInput)
	}
	if n < 1 {
		return nil, fmt.Errorf("extrapolating from empty history: %w", ErrInvalidInput)
	}

	base := model.MonthStart(last)
	points := make([]model.ForecastPoint, horizon)
	for i := range points {
		v := m.At(n + i)
		points[i] = model.ForecastPoint{
			Period:   base.AddDate(0, i+1, 0),
			Forecast: v,
			Lower:    v,
			Upper:    v,
		}
	}
	return points, nil
}

func checkFinite(values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if floats.HasNaN(values) {
		return fmt.Errorf("series holds a missing or NaN value: %w", ErrInvalidInput)
	}
	if math.IsInf(floats.Min(values), 0) || math.IsInf(floats.Max(values), 0) {
		return fmt.Errorf("series holds an infinite value: %w", ErrInvalidInput)
	}
	return nil
}
