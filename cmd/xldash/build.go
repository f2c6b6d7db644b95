package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/javajack/xldash"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	var (
		output               string
		spreadsheetID        string
		completeChartColumns bool
		showProgress         bool
	)

	cmd := &cobra.Command{
		Use:   "build [workbook.xlsx]",
		Short: "Populate the Dashboard sheet",
		Long: `Reset the dashboard regions, then write the summary formulas, number
formats, chart data, combo chart and health conditional formats.

Running it again on the same workbook gives the same result.`,
		Example: `  # Build in place
  xldash build sales.xlsx

  # Build into a copy, filling every product column of the chart data
  xldash build sales.xlsx -o dashboard.xlsx --complete-chart-columns

  # Build a Google Sheets spreadsheet
  xldash build --spreadsheet-id 1AbC...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 0 && spreadsheetID == "" {
				return fmt.Errorf("a workbook path or --spreadsheet-id is required")
			}
			if len(args) == 1 && spreadsheetID != "" {
				return fmt.Errorf("use either a workbook path or --spreadsheet-id, not both")
			}

			var opts []xldash.Option
			if cmd.Flags().Changed("complete-chart-columns") {
				opts = append(opts, xldash.WithCompleteChartColumns(completeChartColumns))
			}
			if showProgress {
				opts = append(opts, xldash.WithStepListener(newProgressListener(os.Stderr, len(xldash.StepNames()))))
			}
			builder, err := newBuilder(opts...)
			if err != nil {
				return err
			}

			if spreadsheetID != "" || len(args) == 0 {
				wb, err := openSpreadsheet(ctx, spreadsheetID)
				if err != nil {
					return err
				}
				if err := builder.Run(ctx, wb); err != nil {
					return err
				}
				slog.Info("Dashboard built", "target", target("", spreadsheetID), "batches", wb.Batches())
				return nil
			}

			wb, err := xldash.OpenWorkbook(args[0], output)
			if err != nil {
				return err
			}
			defer func() {
				if err := wb.Close(); err != nil {
					slog.Warn("Failed to close workbook", "error", err)
				}
			}()

			if err := builder.Run(ctx, wb); err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = args[0]
			}
			slog.Info("Dashboard built", "target", target(dest, ""), "saves", wb.Syncs())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of overwriting the input")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "build a Google Sheets spreadsheet instead of a file")
	cmd.Flags().BoolVar(&completeChartColumns, "complete-chart-columns", false, "write margin formulas for every product column of the chart data")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar")

	return cmd
}
