package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/cli"

	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Month-by-month sales table",
	RunE:  runTrend,
}

func init() {
	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	v, result, err := loadView(cmd.Context())
	if err != nil {
		return err
	}
	if len(v.Months) == 0 {
		fmt.Println("\n  No sales data in the selected range.")
		return nil
	}
	metrics := result.Feed.Metrics

	fmt.Println()
	fmt.Println(cli.RenderTitle("MONTHLY SALES  " + cli.FormatRange(v.From, v.To)))
	fmt.Println()

	headers := append([]string{"Month"}, metrics...)
	rows := make([][]string, 0, len(v.Months))
	for _, ms := range v.Months {
		row := []string{ms.Month.Format("2006-01")}
		for _, m := range metrics {
			row = append(row, cli.FormatOptional(ms.Cell(m)))
		}
		rows = append(rows, row)
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))

	nameW := 0
	for _, m := range metrics {
		nameW = max(nameW, len(m))
	}
	fmt.Println()
	for _, m := range metrics {
		values := make([]float64, len(v.Months))
		for i, ms := range v.Months {
			values[i] = ms.Values[m]
		}
		fmt.Printf("  %-*s  %s\n", nameW, m, cli.RenderSparkline(values))
	}
	fmt.Println(cli.RenderMuted("  " + strings.Repeat(" ", nameW) + "  " + v.From.Format("Jan 06") + " .. " + v.To.Format("Jan 06")))
	return nil
}
