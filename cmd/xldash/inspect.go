package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func inspectCmd() *cobra.Command {
	var (
		format string
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <workbook.xlsx>",
		Short: "Report what a built dashboard contains",
		Long: `Count the summary and chart-data formulas, list the health rules and
describe the charts on the Dashboard sheet.`,
		Example: `  xldash inspect dashboard.xlsx
  xldash inspect dashboard.xlsx --format yaml
  xldash inspect dashboard.xlsx --check`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := newBuilder()
			if err != nil {
				return err
			}
			report, err := builder.Inspect(args[0])
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if check && !report.Complete(builder.HealthBands()) {
				return fmt.Errorf("dashboard in %s is incomplete", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text, yaml, json)")
	cmd.Flags().BoolVar(&check, "check", false, "fail unless the dashboard is complete")

	return cmd
}

// writeReport renders v as text (via its String method), YAML or JSON.
func writeReport(w io.Writer, format string, v fmt.Stringer) error {
	switch format {
	case "text":
		_, err := fmt.Fprint(w, v.String())
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("invalid format: %s", format)
	}
}
