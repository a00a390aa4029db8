package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/source"
	"github.com/theirongolddev/mfgdash/internal/store"
)

func TestLoad_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "feed.csv", month(2024, time.January), 6, 100)

	var calls int
	res, err := Load(path, false, source.DefaultOptions(), func(_, _ int) { calls++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Feed.Records) != 6 {
		t.Errorf("Records = %d, want 6", len(res.Feed.Records))
	}
	if res.Reparsed != 1 || res.CacheHits != 0 {
		t.Errorf("Reparsed/CacheHits = %d/%d, want 1/0", res.Reparsed, res.CacheHits)
	}
	if calls != 1 {
		t.Errorf("progress calls = %d, want 1", calls)
	}
}

func TestLoad_MergeDirectory(t *testing.T) {
	dir := t.TempDir()
	older := writeCSV(t, dir, "2024h1.csv", month(2024, time.January), 6, 100)
	writeCSV(t, dir, "2024h2.csv", month(2024, time.June), 7, 500)
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	res, err := Load(dir, true, source.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("Files = %d, want 2", len(res.Files))
	}
	recs := res.Feed.Records
	if len(recs) != 12 {
		t.Fatalf("Records = %d, want 12 (Jun overlaps)", len(recs))
	}
	// June is in both feeds; the newer one wins.
	if got := recs[5].Value("Product_A_Sales"); got != 500 {
		t.Errorf("Jun Product_A_Sales = %f, want 500", got)
	}
	if last := res.Feed.Metrics[len(res.Feed.Metrics)-1]; last != "Total Sales" {
		t.Errorf("last metric = %q, want Total Sales", last)
	}

	// Without merge the directory resolves to the newest file only.
	res, err = Load(dir, false, source.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Feed.Records) != 7 {
		t.Errorf("newest-only Records = %d, want 7", len(res.Feed.Records))
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv"), false, source.DefaultOptions(), nil); err == nil {
		t.Fatal("expected error for missing feed")
	}
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "feed.csv", month(2024, time.January), 4, 10)

	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(path, false, source.DefaultOptions(), cache, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.Reparsed != 1 {
		t.Errorf("first Reparsed = %d, want 1", first.Reparsed)
	}

	second, err := LoadWithCache(path, false, source.DefaultOptions(), cache, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.CacheHits != 1 || second.Reparsed != 0 {
		t.Errorf("second CacheHits/Reparsed = %d/%d, want 1/0", second.CacheHits, second.Reparsed)
	}
	if len(second.Feed.Records) != 4 {
		t.Errorf("cached Records = %d, want 4", len(second.Feed.Records))
	}

	// Rewriting the file changes its size, forcing a reparse.
	writeCSV(t, dir, "feed.csv", month(2024, time.January), 8, 10)
	third, err := LoadWithCache(path, false, source.DefaultOptions(), cache, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Reparsed != 1 || len(third.Feed.Records) != 8 {
		t.Errorf("third Reparsed=%d Records=%d, want 1/8", third.Reparsed, len(third.Feed.Records))
	}
}

func TestLoadDB_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sales.db")
	db, err := source.OpenDB("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		`CREATE TABLE feed (Month TEXT, Product_A_Sales REAL, Product_B_Sales REAL)`,
		`INSERT INTO feed VALUES ('2024-01-01', 1, 2), ('2024-02-01', 3, 4)`,
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.Close()

	res, err := LoadDB(t.Context(), "sqlite", dbPath, "feed", source.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Feed.Records) != 2 || res.Feed.Records[1].Value("Total Sales") != 7 {
		t.Errorf("feed = %+v", res.Feed)
	}
}

func TestLoadWithCache_DropsEntryWhenParseFails(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "feed.csv", month(2024, time.January), 4, 10)
	opts := source.DefaultOptions()

	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	if _, err := LoadWithCache(path, false, opts, cache, nil); err != nil {
		t.Fatalf("first load: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	fi := store.FileInfo{MtimeNs: st.ModTime().UnixNano(), SizeBytes: st.Size()}
	if e, _ := cache.Get(cacheKey(path, opts), fi); e == nil {
		t.Fatal("first load did not populate the cache")
	}

	if err := os.WriteFile(path, []byte("Date,Product_A_Sales\n2024-01-01,1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWithCache(path, false, opts, cache, nil); err == nil {
		t.Fatal("expected an error for a feed without a Month column")
	}
	if e, _ := cache.Get(cacheKey(path, opts), fi); e != nil {
		t.Error("stale cache entry survived a failed parse")
	}
}
