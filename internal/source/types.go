package source

import "time"

// DiscoveredFile is a CSV feed found on disk.
type DiscoveredFile struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Options controls how feed columns are interpreted.
type Options struct {
	MonthColumn string // default "Month"
	TotalColumn string // default "Total Sales"; derived from products when missing
}

// DefaultOptions returns the column names used by the standard sales feed.
func DefaultOptions() Options {
	return Options{
		MonthColumn: "Month",
		TotalColumn: "Total Sales",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MonthColumn == "" {
		o.MonthColumn = def.MonthColumn
	}
	if o.TotalColumn == "" {
		o.TotalColumn = def.TotalColumn
	}
	return o
}
