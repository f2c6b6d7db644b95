package main

import (
	"log/slog"

	"github.com/javajack/xldash"
	"github.com/spf13/cobra"
)

func sampleCmd() *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "sample <out.xlsx>",
		Short: "Write a workbook with generated raw data and summary keys",
		Long: `Write a workbook shaped like the configured layout: a Raw Data sheet of
generated orders and a Dashboard sheet with the product and quarter keys
filled in, ready for build.`,
		Example: `  xldash sample sales.xlsx --seed 7
  xldash build sales.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			builder, err := newBuilder()
			if err != nil {
				return err
			}
			if err := xldash.WriteSample(args[0], seed, xldash.WithLayout(builder.Layout()), xldash.WithHealthBands(builder.HealthBands())); err != nil {
				return err
			}
			slog.Info("Sample workbook written", "path", args[0], "seed", seed)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for the generated orders")

	return cmd
}
