package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql" // register mysql driver
	_ "github.com/lib/pq"              // register postgres driver
	_ "modernc.org/sqlite"             // register sqlite driver
)

// Drivers lists the database/sql driver names accepted for SQL feeds.
var Drivers = []string{"postgres", "mysql", "sqlite"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// OpenDB opens a SQL feed database after checking the driver name.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	known := false
	for _, d := range Drivers {
		if d == driver {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unsupported feed driver %q (want one of %v)", driver, Drivers)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s feed: %w", driver, err)
	}
	return db, nil
}

// LoadSQL reads every row of table and interprets it like a CSV feed: the
// month column holds dates, every other numeric column is a metric.
func LoadSQL(ctx context.Context, db *sql.DB, table string, opts Options) ParseResult {
	if !identRe.MatchString(table) {
		return ParseResult{Err: fmt.Errorf("invalid feed table name %q", table)}
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("querying %s: %w", table, err)}
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading columns: %w", err)}
	}

	var cells [][]string
	for rows.Next() {
		vals := make([]any, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return ParseResult{Err: fmt.Errorf("scanning %s: %w", table, err)}
		}

		row := make([]string, len(header))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return ParseResult{Err: fmt.Errorf("reading %s: %w", table, err)}
	}

	res := build(header, cells, opts)
	if res.Feed != nil {
		res.Feed.Source = table
	}
	return res
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.UTC().Format("2006-01-02")
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}
