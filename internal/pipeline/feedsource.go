package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/source"
	"github.com/theirongolddev/mfgdash/internal/store"
)

// Source describes where a feed is loaded from: a CSV path (file or
// directory) or, when Driver is set, a SQL table.
type Source struct {
	Path    string
	Merge   bool
	NoCache bool

	Driver string
	DSN    string
	Table  string

	Options source.Options
}

// IsDB reports whether the feed comes from a SQL table.
func (s Source) IsDB() bool {
	return s.Driver != ""
}

// String names the source for status lines. DSNs are not printed.
func (s Source) String() string {
	if s.IsDB() {
		return s.Driver + ":" + s.Table
	}
	return s.Path
}

// Load reads the feed. File sources go through the parse cache unless
// NoCache is set; a cache that cannot be opened falls back to a plain parse.
func (s Source) Load(ctx context.Context, progressFn ProgressFunc) (*LoadResult, error) {
	if s.IsDB() {
		return LoadDB(ctx, s.Driver, s.DSN, s.Table, s.Options)
	}

	if !s.NoCache {
		cache, err := store.Open(CachePath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			return LoadWithCache(s.Path, s.Merge, s.Options, cache, progressFn)
		}
	}
	return Load(s.Path, s.Merge, s.Options, progressFn)
}

// Fingerprint returns a token that changes whenever the feed's content may
// have changed. For files it covers path, mtime and size of every resolved
// file; SQL tables are read and hashed.
func (s Source) Fingerprint(ctx context.Context) (string, error) {
	if s.IsDB() {
		res, err := LoadDB(ctx, s.Driver, s.DSN, s.Table, s.Options)
		if err != nil {
			return "", err
		}
		return FeedHash(res.Feed), nil
	}

	files, err := resolveFiles(s.Path, s.Merge)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	for _, f := range files {
		fmt.Fprintf(h, "%s|%d|%d\n", f.Path, f.ModTime.UnixNano(), f.Size)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// FeedHash hashes a feed's metrics and values.
func FeedHash(feed *model.Feed) string {
	h := fnv.New64a()
	for _, m := range feed.Metrics {
		fmt.Fprintf(h, "%s,", m)
	}
	for _, r := range feed.Records {
		fmt.Fprintf(h, "\n%d", model.MonthKey(r.Month))
		for _, m := range feed.Metrics {
			if v, ok := r.Lookup(m); ok {
				fmt.Fprintf(h, ",%x", math.Float64bits(v))
			} else {
				fmt.Fprint(h, ",-")
			}
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
