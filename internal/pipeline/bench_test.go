package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/source"
	"github.com/theirongolddev/mfgdash/internal/store"
)

func BenchmarkLoad(b *testing.B) {
	path := writeCSV(b, b.TempDir(), "feed.csv", month(2000, time.January), 300, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(path, false, source.DefaultOptions(), nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	dir := b.TempDir()
	path := writeCSV(b, dir, "feed.csv", month(2000, time.January), 300, 1000)

	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cr, err := LoadWithCache(path, false, source.DefaultOptions(), cache, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = cr
	}
}

func BenchmarkAggregate(b *testing.B) {
	f := testFeed(600)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Aggregate(f, f.Records)
	}
}
