package model

import "time"

// ForecastPoint is a projected value for a future month with its confidence band.
type ForecastPoint struct {
	Period   time.Time `json:"period"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// ExportRow is one line of the actual+forecast export table.
// Nil fields are absent for that period.
type ExportRow struct {
	Period   time.Time `json:"period"`
	Actual   *float64  `json:"actual,omitempty"`
	Forecast *float64  `json:"forecast,omitempty"`
	Lower    *float64  `json:"lower,omitempty"`
	Upper    *float64  `json:"upper,omitempty"`
}
