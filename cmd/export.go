package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/mfgdash/internal/export"

	"github.com/spf13/cobra"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the actual+forecast table to CSV or XLSX",
	Long: "Write the Period/Actual/Forecast/Lower/Upper table for the selected metric.\n" +
		"The format follows the --out extension (.csv or .xlsx); \"-\" writes CSV to stdout.",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default forecast-<metric>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, _, err := loadView(cmd.Context())
	if err != nil {
		return err
	}
	if v.ForecastErr != nil {
		return v.ForecastErr
	}
	rows := v.Forecast.Rows

	if flagExportOut == "-" {
		return export.WriteCSV(os.Stdout, rows)
	}

	out := flagExportOut
	if out == "" {
		out = export.FileName(v.Metric, export.FormatXLSX)
	}
	if err := export.SaveFile(out, rows); err != nil {
		return fmt.Errorf("exporting %s: %w", v.Metric, err)
	}

	if !flagQuiet {
		fmt.Printf("  Wrote %d rows (%d forecast) to %s\n", len(rows), len(v.Forecast.Points), out)
	}
	return nil
}
