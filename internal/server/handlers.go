package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/mfgdash/internal/charts"
	"github.com/theirongolddev/mfgdash/internal/export"
	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/pipeline"
	"github.com/theirongolddev/mfgdash/internal/source"

	"github.com/gorilla/mux"
)

var (
	errNotLoaded = errors.New("feed not loaded yet")
	errBadQuery  = errors.New("bad query")
)

// Handler returns the HTTP routes of the dashboard.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodGet)
	api.HandleFunc("/export.{format:csv|xlsx}", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/charts/{name:trend|compare|forecast}.png", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	return r
}

// parseQuery reads from, to, metric and horizon, falling back to the
// configured defaults.
func (s *Service) parseQuery(r *http.Request) (pipeline.Query, error) {
	q := pipeline.Query{
		Metric:  s.cfg.Metric,
		Horizon: s.cfg.Horizon,
	}
	v := r.URL.Query()

	var err error
	if raw := v.Get("from"); raw != "" {
		if q.From, err = source.ParseMonth(raw); err != nil {
			return q, fmt.Errorf("from %q: %w", raw, errBadQuery)
		}
	}
	if raw := v.Get("to"); raw != "" {
		if q.To, err = source.ParseMonth(raw); err != nil {
			return q, fmt.Errorf("to %q: %w", raw, errBadQuery)
		}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, fmt.Errorf("to is before from: %w", errBadQuery)
	}
	if raw := v.Get("metric"); raw != "" {
		q.Metric = raw
	}
	if raw := v.Get("horizon"); raw != "" {
		if q.Horizon, err = strconv.Atoi(raw); err != nil {
			return q, fmt.Errorf("horizon %q: %w", raw, errBadQuery)
		}
	}
	return q, nil
}

// view builds the dashboard view for the request's query.
func (s *Service) view(r *http.Request) (*model.Feed, *pipeline.View, error) {
	q, err := s.parseQuery(r)
	if err != nil {
		return nil, nil, err
	}
	feed := s.currentFeed()
	if feed == nil {
		return nil, nil, errNotLoaded
	}
	v, err := pipeline.BuildView(feed, q, s.engine)
	if err != nil {
		return nil, nil, err
	}
	return feed, v, nil
}

// forecastView is view, failing when the forecast could not be computed.
func (s *Service) forecastView(r *http.Request) (*pipeline.View, error) {
	_, v, err := s.view(r)
	if err != nil {
		return nil, err
	}
	if v.ForecastErr != nil {
		return nil, v.ForecastErr
	}
	return v, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadQuery),
		errors.Is(err, forecast.ErrInvalidInput),
		errors.Is(err, pipeline.ErrUnknownMetric):
		status = http.StatusBadRequest
	case errors.Is(err, errNotLoaded):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// Summary is served at /v1/summary.
type Summary struct {
	Metric   string               `json:"metric"`
	From     time.Time            `json:"from"`
	To       time.Time            `json:"to"`
	Current  model.SummaryStats   `json:"current"`
	Previous model.SummaryStats   `json:"previous"`
	Shares   []model.ProductShare `json:"shares"`
	Months   []model.MonthStats   `json:"months"`
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.view(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Summary{
		Metric:   v.Metric,
		From:     v.From,
		To:       v.To,
		Current:  v.Stats,
		Previous: v.Previous,
		Shares:   v.Shares,
		Months:   v.Months,
	})
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	v, err := s.forecastView(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Forecast)
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	v, err := s.forecastView(r)
	if err != nil {
		writeError(w, err)
		return
	}

	format := export.Format(mux.Vars(r)["format"])
	var buf bytes.Buffer
	if err := export.Write(&buf, format, v.Forecast.Rows); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(v.Metric, format)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	feed, v, err := s.view(r)
	if err != nil {
		writeError(w, err)
		return
	}

	size, err := parseSize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	switch mux.Vars(r)["name"] {
	case "trend":
		err = charts.Trend(&buf, feed, v.Records, size)
	case "compare":
		err = charts.Compare(&buf, v.Shares, size)
	case "forecast":
		if v.ForecastErr != nil {
			writeError(w, v.ForecastErr)
			return
		}
		err = charts.Forecast(&buf, v.Metric, v.History, v.Forecast.Points, size)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// parseSize reads the optional width and height of a chart request.
func parseSize(r *http.Request) (charts.Size, error) {
	var size charts.Size
	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &size.Width}, {"height", &size.Height}} {
		raw := r.URL.Query().Get(dim.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > charts.MaxSide {
			return size, fmt.Errorf("%s %q (want 1 to %d): %w", dim.name, raw, charts.MaxSide, errBadQuery)
		}
		*dim.dst = n
	}
	return size, nil
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, s.currentEvent())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

// currentEvent describes the loaded feed for a newly connected subscriber.
func (s *Service) currentEvent() Event {
	return Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Feed,
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
