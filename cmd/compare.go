package cmd

import (
	"fmt"

	"github.com/theirongolddev/mfgdash/internal/cli"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare product totals and shares",
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	v, _, err := loadView(cmd.Context())
	if err != nil {
		return err
	}
	if len(v.Shares) == 0 {
		fmt.Println("\n  No product columns in the selected range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PRODUCT COMPARISON  " + cli.FormatRange(v.From, v.To)))
	fmt.Println()

	rows := make([][]string, 0, len(v.Shares))
	maxSum := 0.0
	labelW := 0
	for _, s := range v.Shares {
		rows = append(rows, []string{
			s.Product,
			cli.FormatSales(s.Sum),
			cli.FormatPercent(s.SharePercent),
			cli.RenderTrend(s.TrendDirection, ""),
		})
		maxSum = max(maxSum, s.Sum)
		labelW = max(labelW, len(s.Product))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Product", "Total", "Share", "vs prior"},
		Rows:    rows,
	}))

	fmt.Println()
	for _, s := range v.Shares {
		fmt.Println(cli.RenderHorizontalBar(s.Product, labelW, s.Sum, maxSum, 30))
	}
	return nil
}
