package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover resolves path to a single feed file. A directory resolves to the
// most recently modified *.csv inside it.
func Discover(path string) (DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, fmt.Errorf("locating feed: %w", err)
	}
	if !info.IsDir() {
		return DiscoveredFile{Path: path, ModTime: info.ModTime(), Size: info.Size()}, nil
	}

	files, err := ScanDir(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	if len(files) == 0 {
		return DiscoveredFile{}, fmt.Errorf("no .csv feed in %s: %w", path, os.ErrNotExist)
	}
	return files[0], nil
}

// ScanDir lists the CSV files directly inside dir, newest first.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		files = append(files, DiscoveredFile{
			Path:    filepath.Join(dir, e.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}
