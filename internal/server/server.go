// Package server runs the web dashboard: an HTTP API over the loaded feed
// that polls the source and pushes feed updates to live subscribers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/mfgdash/internal/forecast"
	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/pipeline"
)

// Config controls the server runtime behavior.
type Config struct {
	Source       pipeline.Source
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	// Defaults for requests that omit metric or horizon.
	Metric     string
	Horizon    int
	MaxHorizon int
}

// Snapshot describes the currently loaded feed.
type Snapshot struct {
	At          time.Time `json:"at"`
	Source      string    `json:"source"`
	Months      int       `json:"months"`
	FirstMonth  time.Time `json:"first_month"`
	LastMonth   time.Time `json:"last_month"`
	Metrics     []string  `json:"metrics"`
	Fingerprint string    `json:"fingerprint"`
}

// Event is emitted when the feed is first loaded and whenever it changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventFeedUpdated = "feed_updated"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ReloadCount     int64     `json:"reload_count"`
	Source          string    `json:"source"`
	Feed            Snapshot  `json:"feed"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the dashboard runtime and HTTP API.
type Service struct {
	cfg    Config
	engine *forecast.Engine

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	reloadCount int64
	lastError   string
	feed        *model.Feed
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}
	if cfg.Horizon < 1 {
		cfg.Horizon = 6
	}

	return &Service{
		cfg:       cfg,
		engine:    forecast.NewEngine(cfg.MaxHorizon),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves HTTP and polls the feed until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Printf("mfgdash serve listening on http://%s (feed %s)", s.cfg.Addr, s.cfg.Source)

	// Load before the first tick so the API is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("mfgdash http server: %w", err)
		}
	}
}

// pollOnce reloads the feed when its fingerprint changed since the last load.
func (s *Service) pollOnce(ctx context.Context) {
	fp, err := s.cfg.Source.Fingerprint(ctx)
	if err != nil {
		s.recordPollError(err)
		return
	}

	s.mu.RLock()
	unchanged := s.feed != nil && s.snapshot.Fingerprint == fp
	s.mu.RUnlock()
	if unchanged {
		s.mu.Lock()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.lastError = ""
		s.mu.Unlock()
		return
	}

	start := time.Now()
	res, err := s.cfg.Source.Load(ctx, nil)
	if err != nil {
		s.recordPollError(err)
		return
	}
	now := time.Now()
	snap := snapshotFromFeed(res.Feed, s.cfg.Source.String(), fp, now)

	s.mu.Lock()
	first := s.feed == nil
	s.feed = res.Feed
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.reloadCount++
	s.lastError = ""
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventFeedUpdated,
		Timestamp: now,
		Snapshot:  snap,
	}
	if first {
		ev.Type = EventSnapshot
	}
	s.mu.Unlock()

	if res.ParseErrors > 0 {
		log.Printf("mfgdash serve: %d rows skipped while parsing %s", res.ParseErrors, s.cfg.Source)
	}
	log.Printf("mfgdash serve loaded %d months from %s in %s", snap.Months, s.cfg.Source, time.Since(start).Round(time.Millisecond))
	s.publishEvent(ev)
}

func (s *Service) recordPollError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.mu.Unlock()
	log.Printf("mfgdash serve poll error: %v", err)
}

func snapshotFromFeed(feed *model.Feed, src, fingerprint string, at time.Time) Snapshot {
	first, last := feed.Span()
	return Snapshot{
		At:          at,
		Source:      src,
		Months:      len(feed.Records),
		FirstMonth:  first,
		LastMonth:   last,
		Metrics:     append([]string(nil), feed.Metrics...),
		Fingerprint: fingerprint,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// currentFeed returns the loaded feed; it is never mutated after a reload
// replaces it, so callers may read it without the lock.
func (s *Service) currentFeed() *model.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feed
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ReloadCount:     s.reloadCount,
		Source:          s.cfg.Source.String(),
		Feed:            s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
