package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/pipeline"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"month":    cli.FormatMonth,
	"sales":    cli.FormatSales,
	"optional": cli.FormatOptional,
	"percent":  cli.FormatPercent,
	"ym":       func(t time.Time) string { return t.Format("2006-01") },
}).Parse(dashboardHTML))

type dashboardData struct {
	Status  Status
	View    *pipeline.View
	Err     string
	Query   template.URL // encoded filter, appended to API links
	Metrics []string
	Horizon int
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Status: s.snapshotStatus(),
		Query:  template.URL(r.URL.RawQuery), //nolint:gosec // query part only, normalized by the template
	}
	data.Metrics = data.Status.Feed.Metrics

	if q, err := s.parseQuery(r); err == nil {
		data.Horizon = q.Horizon
	}
	if _, v, err := s.view(r); err != nil {
		data.Err = err.Error()
	} else {
		data.View = v
		data.Query = template.URL(canonicalQuery(v, data.Horizon))
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// canonicalQuery spells out the resolved filter so chart and export links
// match the page.
func canonicalQuery(v *pipeline.View, horizon int) string {
	q := url.Values{}
	q.Set("metric", v.Metric)
	if !v.From.IsZero() {
		q.Set("from", v.From.Format("2006-01"))
	}
	if !v.To.IsZero() {
		q.Set("to", v.To.Format("2006-01"))
	}
	q.Set("horizon", strconv.Itoa(horizon))
	return q.Encode()
}
