package main

import (
	"fmt"

	"github.com/javajack/xldash"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configured layout and health bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			builder, err := newBuilder()
			if err != nil {
				return err
			}
			issues := builder.Validate()
			errs := 0
			for _, issue := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), issue.String())
				if issue.Severity == xldash.SeverityError {
					errs++
				}
			}
			if errs > 0 {
				return fmt.Errorf("layout has %d errors", errs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "layout OK")
			return nil
		},
	}
}
