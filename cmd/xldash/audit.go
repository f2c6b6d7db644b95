package main

import (
	"fmt"
	"log/slog"

	"github.com/javajack/xldash"
	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	var (
		format        string
		spreadsheetID string
	)

	cmd := &cobra.Command{
		Use:   "audit [workbook.xlsx]",
		Short: "Recalculate the summary table and check its values",
		Long: `Recalculate the summary table of a built dashboard and check that every
health label matches its margin, base periods read N/A and each trend is
the change against the product's previous quarter.

Exits non-zero when any check fails.`,
		Example: `  xldash audit dashboard.xlsx
  xldash audit --spreadsheet-id 1AbC... --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			builder, err := newBuilder()
			if err != nil {
				return err
			}

			var (
				calc xldash.Calculator
				name string
			)
			switch {
			case len(args) == 1 && spreadsheetID != "":
				return fmt.Errorf("use either a workbook path or --spreadsheet-id, not both")
			case len(args) == 1:
				wb, err := xldash.OpenWorkbook(args[0], "")
				if err != nil {
					return err
				}
				defer func() {
					if err := wb.Close(); err != nil {
						slog.Warn("Failed to close workbook", "error", err)
					}
				}()
				calc, name = wb, target(args[0], "")
			default:
				wb, err := openSpreadsheet(ctx, spreadsheetID)
				if err != nil {
					return err
				}
				calc, name = wb, target("", spreadsheetID)
			}

			result, err := builder.Audit(ctx, calc)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), format, result); err != nil {
				return err
			}
			if !result.OK() {
				return fmt.Errorf("audit of %s found %d issues", name, len(result.Findings))
			}
			slog.Info("Audit passed", "target", name, "rows", result.RowsChecked)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text, yaml, json)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "audit a Google Sheets spreadsheet instead of a file")

	return cmd
}
