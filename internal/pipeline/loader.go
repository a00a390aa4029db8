package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/mfgdash/internal/model"
	"github.com/theirongolddev/mfgdash/internal/source"
)

// LoadResult holds the output of the feed loading pipeline.
type LoadResult struct {
	Feed        *model.Feed
	Files       []source.DiscoveredFile
	ParseErrors int
	FileErrors  int
	CacheHits   int
	Reparsed    int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load parses the feed at path. A directory resolves to its newest CSV, or
// to every CSV merged by month when merge is set.
func Load(path string, merge bool, opts source.Options, progressFn ProgressFunc) (*LoadResult, error) {
	return loadFiles(path, merge, progressFn, func(df source.DiscoveredFile) (source.ParseResult, bool) {
		return source.ParseFile(df, opts), false
	})
}

// LoadDB reads the feed from a SQL table.
func LoadDB(ctx context.Context, driver, dsn, table string, opts source.Options) (*LoadResult, error) {
	db, err := source.OpenDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	pr := source.LoadSQL(ctx, db, table, opts)
	if pr.Err != nil {
		return nil, pr.Err
	}
	return &LoadResult{Feed: pr.Feed, ParseErrors: pr.ParseErrors}, nil
}

// resolveFiles returns the files to parse, oldest first.
func resolveFiles(path string, merge bool) ([]source.DiscoveredFile, error) {
	if merge {
		if files, err := source.ScanDir(path); err == nil {
			if len(files) == 0 {
				return nil, fmt.Errorf("no .csv feeds in %s", path)
			}
			sort.Slice(files, func(i, j int) bool {
				return files[i].ModTime.Before(files[j].ModTime)
			})
			return files, nil
		}
	}
	df, err := source.Discover(path)
	if err != nil {
		return nil, err
	}
	return []source.DiscoveredFile{df}, nil
}

// loadFiles parses every resolved file with a bounded worker pool and merges
// the results. parse reports whether its result came from cache.
func loadFiles(path string, merge bool, progressFn ProgressFunc, parse func(source.DiscoveredFile) (source.ParseResult, bool)) (*LoadResult, error) {
	files, err := resolveFiles(path, merge)
	if err != nil {
		return nil, err
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	cached := make([]bool, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx], cached[idx] = parse(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	result := &LoadResult{Files: files}
	var (
		feeds    []*model.Feed
		firstErr error
	)
	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			if firstErr == nil {
				firstErr = fmt.Errorf("parsing %s: %w", files[i].Path, pr.Err)
			}
			continue
		}
		if cached[i] {
			result.CacheHits++
		} else {
			result.Reparsed++
		}
		result.ParseErrors += pr.ParseErrors
		feeds = append(feeds, pr.Feed)
	}
	if len(feeds) == 0 {
		return nil, firstErr
	}

	result.Feed = MergeFeeds(feeds)
	return result, nil
}

// MergeFeeds combines feeds ordered oldest to newest. For a month present in
// several feeds the newest feed's record wins.
func MergeFeeds(feeds []*model.Feed) *model.Feed {
	if len(feeds) == 1 {
		return feeds[0]
	}

	merged := &model.Feed{
		Source:      feeds[len(feeds)-1].Source,
		MonthColumn: feeds[0].MonthColumn,
		TotalColumn: feeds[0].TotalColumn,
	}
	seen := make(map[string]bool)
	byMonth := make(map[int]model.Record)
	for _, f := range feeds {
		for _, m := range f.Metrics {
			if !seen[m] {
				seen[m] = true
				merged.Metrics = append(merged.Metrics, m)
			}
		}
		merged.DerivedTotal = merged.DerivedTotal || f.DerivedTotal
		for _, r := range f.Records {
			byMonth[model.MonthKey(r.Month)] = r
		}
	}

	// Keep the total column last, as a single parsed feed has it.
	if seen[merged.TotalColumn] {
		metrics := merged.Metrics[:0]
		for _, m := range merged.Metrics {
			if m != merged.TotalColumn {
				metrics = append(metrics, m)
			}
		}
		merged.Metrics = append(metrics, merged.TotalColumn)
	}

	for _, r := range byMonth {
		merged.Records = append(merged.Records, r)
	}
	sort.Slice(merged.Records, func(i, j int) bool {
		return merged.Records[i].Month.Before(merged.Records[j].Month)
	})
	return merged
}
