package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiscover_DirectoryPicksNewest(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "jan.csv")
	newer := filepath.Join(dir, "feb.CSV")
	for _, p := range []string{older, newer, filepath.Join(dir, "notes.txt")} {
		if err := os.WriteFile(p, []byte("Month,Sales\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	df, err := Discover(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if df.Path != newer {
		t.Errorf("Discover = %q, want %q", df.Path, newer)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ScanDir = %d files, want 2", len(files))
	}
}

func TestDiscover_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.csv")
	if err := os.WriteFile(path, []byte("Month,Sales\n2024-01,1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	df, err := Discover(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if df.Size == 0 || df.ModTime.IsZero() {
		t.Errorf("DiscoveredFile = %+v, want size and mtime set", df)
	}
}

func TestDiscover_Errors(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Discover(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("empty dir error = %v, want not-exist", err)
	}
}
