package pipeline

import (
	"os"
	"path/filepath"

	"github.com/theirongolddev/mfgdash/internal/source"
	"github.com/theirongolddev/mfgdash/internal/store"
)

// LoadWithCache behaves like Load but reuses cached parses for files whose
// mtime and size are unchanged, and stores fresh parses back into the cache.
// A file that no longer parses loses its cache entry.
func LoadWithCache(path string, merge bool, opts source.Options, cache *store.Cache, progressFn ProgressFunc) (*LoadResult, error) {
	return loadFiles(path, merge, progressFn, func(df source.DiscoveredFile) (source.ParseResult, bool) {
		key := cacheKey(df.Path, opts)
		fi := store.FileInfo{MtimeNs: df.ModTime.UnixNano(), SizeBytes: df.Size}

		if e, err := cache.Get(key, fi); err == nil && e != nil {
			return source.ParseResult{Feed: e.Feed, ParseErrors: e.ParseErrors}, true
		}

		pr := source.ParseFile(df, opts)
		if pr.Err != nil {
			_ = cache.Delete(key)
			return pr, false
		}
		_ = cache.Put(key, fi, pr.Feed, pr.ParseErrors)
		return pr, false
	})
}

// cacheKey includes the column options since they change how a file parses.
func cacheKey(path string, opts source.Options) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path + "|" + opts.MonthColumn + "|" + opts.TotalColumn
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "mfgdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "mfgdash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "feeds.db")
}
