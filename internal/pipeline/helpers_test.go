package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/mfgdash/internal/model"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// testFeed builds a feed with n months starting Jan 2023 where product A
// sells 100+10i, product B 50+5i, and the total is their sum.
func testFeed(n int) *model.Feed {
	f := &model.Feed{
		MonthColumn: "Month",
		TotalColumn: "Total Sales",
		Metrics:     []string{"Product_A_Sales", "Product_B_Sales", "Total Sales"},
	}
	for i := 0; i < n; i++ {
		a := 100 + 10*float64(i)
		b := 50 + 5*float64(i)
		f.Records = append(f.Records, model.Record{
			Month:  month(2023, time.January).AddDate(0, i, 0),
			Values: map[string]float64{"Product_A_Sales": a, "Product_B_Sales": b, "Total Sales": a + b},
		})
	}
	return f
}

// writeCSV writes a feed CSV with n months into dir under name.
func writeCSV(t testing.TB, dir, name string, start time.Time, n int, base float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Month,Product_A_Sales,Product_B_Sales,Total Sales\n")
	for i := 0; i < n; i++ {
		a, p := base+float64(i), base/2
		fmt.Fprintf(&b, "%s,%.0f,%.0f,%.0f\n", start.AddDate(0, i, 0).Format("2006-01-02"), a, p, a+p)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
