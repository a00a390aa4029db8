// Package store provides a SQLite-backed cache for parsed sales feeds.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"

	"github.com/golang/snappy"
	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed feed caching keyed by file path.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Entry is a cached parse of one feed file.
type Entry struct {
	FileInfo
	Feed        *model.Feed
	ParseErrors int
	ParsedAt    time.Time
}

// Get returns the cached feed for path if its tracked mtime and size match fi.
// A miss returns (nil, nil).
func (c *Cache) Get(path string, fi FileInfo) (*Entry, error) {
	var (
		e        Entry
		payload  []byte
		parsedAt string
	)
	err := c.db.QueryRow(`SELECT mtime_ns, size_bytes, parse_errors, payload, parsed_at
		FROM feed_cache WHERE path = ?`, path).
		Scan(&e.MtimeNs, &e.SizeBytes, &e.ParseErrors, &payload, &parsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if e.FileInfo != fi {
		return nil, nil
	}

	feed, err := decodeFeed(payload)
	if err != nil {
		return nil, err
	}
	e.Feed = feed
	e.ParsedAt, _ = time.Parse(time.RFC3339, parsedAt)
	return &e, nil
}

// Put stores a parsed feed and its file tracking info, replacing any previous entry.
func (c *Cache) Put(path string, fi FileInfo, feed *model.Feed, parseErrors int) error {
	payload, err := encodeFeed(feed)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = c.db.Exec(`INSERT OR REPLACE INTO feed_cache
		(path, mtime_ns, size_bytes, parse_errors, payload, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		path, fi.MtimeNs, fi.SizeBytes, parseErrors, payload, now,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for path.
func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM feed_cache WHERE path = ?", path)
	return err
}

func encodeFeed(feed *model.Feed) ([]byte, error) {
	raw, err := json.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("encoding feed: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decodeFeed(payload []byte) (*model.Feed, error) {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("decompressing cached feed: %w", err)
	}
	var feed model.Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("decoding cached feed: %w", err)
	}
	return &feed, nil
}
