package forecast

import (
	"fmt"

	"github.com/theirongolddev/mfgdash/internal/model"

	"gonum.org/v1/gonum/stat"
)

// Z is the two-sided ~95% normal multiplier applied to the residual deviation.
const Z = 1.96

// ResidualStdError returns the sample standard deviation (n-1) of actual - fitted.
func ResidualStdError(actual, fitted []float64) (float64, error) {
	if len(actual) != len(fitted) {
		return 0, fmt.Errorf("residuals: %d actual vs %d fitted values: %w", len(actual), len(fitted), ErrInvalidInput)
	}
	if len(actual) < 2 {
		return 0, fmt.Errorf("residuals: need at least 2 points, got %d: %w", len(actual), ErrInvalidInput)
	}
	if err := checkFinite(actual); err != nil {
		return 0, err
	}
	if err := checkFinite(fitted); err != nil {
		return 0, err
	}

	residuals := make([]float64, len(actual))
	for i := range actual {
		residuals[i] = actual[i] - fitted[i]
	}
	return stat.StdDev(residuals, nil), nil
}

// ApplyBand sets Lower and Upper to Forecast -/+ Z*stdErr on every point.
// The band is the same width at every horizon step.
func ApplyBand(points []model.ForecastPoint, stdErr float64) []model.ForecastPoint {
	margin := Z * stdErr
	out := make([]model.ForecastPoint, len(points))
	for i, p := range points {
		p.Lower = p.Forecast - margin
		p.Upper = p.Forecast + margin
		out[i] = p
	}
	return out
}
