package forecast

import (
	"fmt"

	"github.com/theirongolddev/mfgdash/internal/model"
)

// DefaultMaxHorizon caps the number of months a single run may project.
const DefaultMaxHorizon = 24

// Engine runs the fit/extrapolate/band/assemble sequence. It holds only
// configuration and is safe for concurrent use.
type Engine struct {
	MaxHorizon int
}

// NewEngine returns an engine with the given horizon cap. A cap of 0 or less
// accepts any positive horizon.
func NewEngine(maxHorizon int) *Engine {
	return &Engine{MaxHorizon: maxHorizon}
}

// Request is the input to a single forecast run.
type Request struct {
	Metric string
	// History is the full series the model is fitted on.
	History []model.SeriesPoint
	// Filtered is the user-selected subset shown as actuals in the export table.
	Filtered []model.SeriesPoint
	Horizon  int
}

// Result is a complete forecast. A failed run never yields a partial Result.
type Result struct {
	Metric   string                `json:"metric"`
	Model    Model                 `json:"model"`
	Fitted   []float64             `json:"fitted"`
	StdError float64               `json:"std_error"`
	Points   []model.ForecastPoint `json:"points"`
	Rows     []model.ExportRow     `json:"rows"`
}

// Run fits the model to req.History and projects req.Horizon months.
func (e *Engine) Run(req Request) (*Result, error) {
	values := make([]float64, len(req.History))
	for i, p := range req.History {
		values[i] = p.Value
	}

	m, err := Fit(values)
	if err != nil {
		return nil, fmt.Errorf("forecasting %s: %w", req.Metric, err)
	}

	fitted := m.Fitted(len(values))
	stdErr, err := ResidualStdError(values, fitted)
	if err != nil {
		return nil, fmt.Errorf("forecasting %s: %w", req.Metric, err)
	}

	last := req.History[len(req.History)-1].Period
	points, err := Extrapolate(m, len(values), last, req.Horizon, e.MaxHorizon)
	if err != nil {
		return nil, fmt.Errorf("forecasting %s: %w", req.Metric, err)
	}
	points = ApplyBand(points, stdErr)

	return &Result{
		Metric:   req.Metric,
		Model:    m,
		Fitted:   fitted,
		StdError: stdErr,
		Points:   points,
		Rows:     Assemble(req.Filtered, points),
	}, nil
}
