package cmd

import (
	"fmt"

	"github.com/theirongolddev/mfgdash/internal/cli"
	"github.com/theirongolddev/mfgdash/internal/forecast"

	"github.com/spf13/cobra"
)

var flagForecastAll bool

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project a metric forward with a 95% band",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().BoolVar(&flagForecastAll, "all", false, "Print the full export table (actuals and forecast)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	v, _, err := loadView(cmd.Context())
	if err != nil {
		return err
	}
	if v.ForecastErr != nil {
		return v.ForecastErr
	}
	res := v.Forecast

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s  +%d months", v.Metric, len(res.Points))))
	fmt.Println()

	first := v.History[0].Period
	fmt.Printf("  Model:           %s + %s x t  (t=0 at %s, %d months)\n",
		cli.FormatSales(res.Model.Intercept), cli.FormatSales(res.Model.Slope),
		cli.FormatMonth(first), len(v.History))
	fmt.Printf("  Residual sd:     %s\n", cli.FormatSales(res.StdError))
	fmt.Printf("  95%% band:        +/- %s\n", cli.FormatSales(forecast.Z*res.StdError))
	fmt.Println()

	if flagForecastAll {
		rows := make([][]string, 0, len(res.Rows))
		for _, r := range res.Rows {
			rows = append(rows, []string{
				r.Period.Format("2006-01"),
				cli.FormatOptional(r.Actual),
				cli.FormatOptional(r.Forecast),
				cli.FormatOptional(r.Lower),
				cli.FormatOptional(r.Upper),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Period", "Actual", "Forecast", "Lower", "Upper"},
			Rows:    rows,
		}))
		return nil
	}

	rows := make([][]string, 0, len(res.Points))
	for _, p := range res.Points {
		rows = append(rows, []string{
			p.Period.Format("2006-01"),
			cli.FormatSales(p.Forecast),
			cli.FormatSales(p.Lower),
			cli.FormatSales(p.Upper),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Forecast", "Lower", "Upper"},
		Rows:    rows,
	}))
	return nil
}
