package cmd

import (
	"fmt"

	"github.com/theirongolddev/mfgdash/internal/cli"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Sales totals for the selected months",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	v, _, err := loadView(cmd.Context())
	if err != nil {
		return err
	}

	if len(v.Records) == 0 {
		fmt.Println("\n  No sales data in the selected range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SALES SUMMARY  " + cli.FormatRange(v.From, v.To)))
	fmt.Println()

	rows := make([][]string, 0, len(v.Stats.Totals)+6)
	for _, t := range v.Stats.Totals {
		vsPrior := "-"
		if prev, ok := v.Previous.Total(t.Metric); ok && v.Previous.Months > 0 {
			vsPrior = cli.RenderTrend(cli.Direction(t.Sum, prev.Sum), cli.FormatDelta(t.Sum, prev.Sum))
		}
		rows = append(rows, []string{
			t.Metric,
			cli.FormatSales(t.Sum),
			cli.FormatSales(t.Average),
			vsPrior,
		})
	}

	if sel, ok := v.Stats.Total(v.Metric); ok {
		rows = append(rows,
			[]string{"---"},
			[]string{"Months", cli.FormatNumber(int64(v.Stats.Months)), "", ""},
			[]string{"Peak (" + v.Metric + ")", cli.FormatSales(sel.Max), cli.FormatMonth(sel.PeakAt), ""},
		)
		if v.Stats.Months > 1 {
			rows = append(rows, []string{"Latest month", cli.FormatSales(sel.Latest), "", cli.RenderTrend(cli.Direction(sel.Latest, sel.Previous), cli.FormatDelta(sel.Latest, sel.Previous))})
		}
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Total", "Avg/month", "vs prior"},
		Rows:    rows,
	}))

	if v.Forecast != nil && len(v.Forecast.Points) > 0 {
		next := v.Forecast.Points[0]
		fmt.Printf("\n  Next month %s: %s (95%%: %s to %s)\n",
			cli.FormatMonth(next.Period), cli.FormatSales(next.Forecast),
			cli.FormatSales(next.Lower), cli.FormatSales(next.Upper))
		fmt.Println(cli.RenderMuted("  Run `mfgdash forecast` for the full projection."))
	}
	return nil
}
