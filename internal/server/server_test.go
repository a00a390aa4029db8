package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/pipeline"

	"github.com/gorilla/websocket"
)

// writeFeed writes n months from Jan 2023 where product A sells 100+i,
// product B a flat 50.
func writeFeed(t *testing.T, path string, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Month,Product_A_Sales,Product_B_Sales,Total Sales\n")
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		a := 100 + i
		fmt.Fprintf(&b, "%s,%d,50,%d\n", start.AddDate(0, i, 0).Format("2006-01-02"), a, a+50)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
}

func newLoadedService(t *testing.T, months int) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.csv")
	writeFeed(t, path, months)

	s := New(Config{
		Source:     pipeline.Source{Path: path, NoCache: true},
		Interval:   10 * time.Second,
		Horizon:    3,
		MaxHorizon: 12,
	})
	s.pollOnce(t.Context())
	if s.currentFeed() == nil {
		t.Fatalf("feed not loaded: %s", s.snapshotStatus().LastError)
	}
	return s, path
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_ReloadsOnlyOnChange(t *testing.T) {
	s, path := newLoadedService(t, 6)

	st := s.snapshotStatus()
	if st.EventCount != 1 || st.ReloadCount != 1 {
		t.Fatalf("after first poll: events=%d reloads=%d, want 1/1", st.EventCount, st.ReloadCount)
	}
	if st.Feed.Months != 6 {
		t.Errorf("Months = %d, want 6", st.Feed.Months)
	}

	s.pollOnce(t.Context())
	st = s.snapshotStatus()
	if st.EventCount != 1 || st.ReloadCount != 1 || st.PollCount != 2 {
		t.Fatalf("unchanged poll: events=%d reloads=%d polls=%d, want 1/1/2", st.EventCount, st.ReloadCount, st.PollCount)
	}

	writeFeed(t, path, 8)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	s.pollOnce(t.Context())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].Type != EventSnapshot || s.events[1].Type != EventFeedUpdated {
		t.Errorf("event types = [%s, %s], want [snapshot, feed_updated]", s.events[0].Type, s.events[1].Type)
	}
	if s.events[1].Snapshot.Months != 8 {
		t.Errorf("updated Months = %d, want 8", s.events[1].Snapshot.Months)
	}
}

func TestPollOnce_ErrorKeepsLastFeed(t *testing.T) {
	s, path := newLoadedService(t, 4)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	s.pollOnce(t.Context())

	st := s.snapshotStatus()
	if st.LastError == "" {
		t.Error("LastError empty after a failed poll")
	}
	if s.currentFeed() == nil || st.Feed.Months != 4 {
		t.Error("previous feed dropped after a failed poll")
	}
}

func TestHandler_Health(t *testing.T) {
	s := New(Config{})
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_NotLoaded(t *testing.T) {
	s := New(Config{})
	if rec := get(t, s.Handler(), "/v1/forecast"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("forecast before load = %d, want 503", rec.Code)
	}
}

func TestHandler_Forecast(t *testing.T) {
	s, _ := newLoadedService(t, 6)

	rec := get(t, s.Handler(), "/v1/forecast?horizon=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res forecast.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Metric != "Total Sales" {
		t.Errorf("Metric = %q, want Total Sales", res.Metric)
	}
	if len(res.Points) != 2 {
		t.Fatalf("Points = %d, want 2", len(res.Points))
	}
	// 150, 151, ... 155 then 156, 157
	if got := res.Points[1].Forecast; got < 156.999 || got > 157.001 {
		t.Errorf("second forecast = %v, want 157", got)
	}
	if len(res.Rows) != 8 {
		t.Errorf("Rows = %d, want 8", len(res.Rows))
	}
}

func TestHandler_ForecastFiltered(t *testing.T) {
	s, _ := newLoadedService(t, 6)

	rec := get(t, s.Handler(), "/v1/forecast?from=2023-04&metric=product_a&horizon=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res forecast.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Metric != "Product_A_Sales" {
		t.Errorf("Metric = %q, want Product_A_Sales", res.Metric)
	}
	// three filtered actuals (Apr-Jun) plus one forecast row
	if len(res.Rows) != 4 {
		t.Errorf("Rows = %d, want 4", len(res.Rows))
	}
}

func TestHandler_BadRequests(t *testing.T) {
	s, _ := newLoadedService(t, 6)
	h := s.Handler()

	for _, target := range []string{
		"/v1/forecast?horizon=0",
		"/v1/forecast?horizon=13",
		"/v1/forecast?horizon=abc",
		"/v1/forecast?metric=nope",
		"/v1/summary?from=someday",
		"/v1/summary?from=2023-05&to=2023-02",
		"/v1/export.csv?horizon=-1",
	} {
		rec := get(t, h, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("%s: body lacks error field: %s", target, rec.Body.String())
		}
	}
}

func TestHandler_Summary(t *testing.T) {
	s, _ := newLoadedService(t, 6)

	rec := get(t, s.Handler(), "/v1/summary?from=2023-04")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var sum Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Current.Months != 3 || sum.Previous.Months != 3 {
		t.Errorf("months current/previous = %d/%d, want 3/3", sum.Current.Months, sum.Previous.Months)
	}
	if len(sum.Shares) != 2 {
		t.Errorf("Shares = %d, want 2", len(sum.Shares))
	}
}

func TestHandler_Exports(t *testing.T) {
	s, _ := newLoadedService(t, 6)
	h := s.Handler()

	rec := get(t, h, "/v1/export.csv?horizon=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Period,Actual,Forecast,Lower,Upper") {
		t.Errorf("csv header missing: %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "forecast-total-sales.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = get(t, h, "/v1/export.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("xlsx body is not a zip archive")
	}

	if rec := get(t, h, "/v1/export.json"); rec.Code != http.StatusNotFound {
		t.Errorf("export.json = %d, want 404", rec.Code)
	}
}

func TestHandler_Charts(t *testing.T) {
	s, _ := newLoadedService(t, 6)
	h := s.Handler()

	for _, name := range []string{"trend", "compare", "forecast"} {
		rec := get(t, h, "/v1/charts/"+name+".png?width=640&height=320")
		if rec.Code != http.StatusOK {
			t.Errorf("%s chart = %d: %s", name, rec.Code, rec.Body.String())
			continue
		}
		if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
			t.Errorf("%s chart is not a PNG", name)
		}
	}
}

func TestHandler_ChartSizeBounds(t *testing.T) {
	s, _ := newLoadedService(t, 6)
	h := s.Handler()

	for _, q := range []string{
		"width=50000&height=50000",
		"width=4097",
		"height=0",
		"width=-5",
		"width=wide",
	} {
		rec := get(t, h, "/v1/charts/trend.png?"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", q, rec.Code)
		}
	}

	rec := get(t, h, "/v1/charts/compare.png?width=4096&height=64")
	if rec.Code != http.StatusOK {
		t.Errorf("largest allowed width: code = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Index(t *testing.T) {
	s, _ := newLoadedService(t, 6)

	rec := get(t, s.Handler(), "/?metric=Product_B_Sales")
	if rec.Code != http.StatusOK {
		t.Fatalf("index = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Forecast: Product_B_Sales", "/v1/charts/forecast.png?", "horizon=3", "<td>2023-06</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestHandler_EventsAndStatus(t *testing.T) {
	s, _ := newLoadedService(t, 3)
	h := s.Handler()

	var events []Event
	if err := json.Unmarshal(get(t, h, "/v1/events").Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Errorf("events = %+v, want one snapshot", events)
	}

	var st Status
	if err := json.Unmarshal(get(t, h, "/v1/status").Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Feed.Months != 3 || len(st.Feed.Metrics) != 3 {
		t.Errorf("status feed = %+v", st.Feed)
	}
}

func TestWebSocket_PushesEvents(t *testing.T) {
	s, _ := newLoadedService(t, 3)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventSnapshot || ev.Snapshot.Months != 3 {
		t.Errorf("first message = %+v, want current snapshot", ev)
	}

	s.publishEvent(Event{ID: 42, Type: EventFeedUpdated})
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.ID != 42 || ev.Type != EventFeedUpdated {
		t.Errorf("pushed event = %+v, want id 42 feed_updated", ev)
	}
}
