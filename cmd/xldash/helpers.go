package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/javajack/xldash"
	"github.com/javajack/xldash/internal/config"
	"github.com/javajack/xldash/sheets"
	"github.com/spf13/viper"
)

// newBuilder builds from the layout and health bands in the config.
func newBuilder(extra ...xldash.Option) (*xldash.Builder, error) {
	layout, err := config.LoadLayout(viper.GetViper())
	if err != nil {
		return nil, err
	}
	bands, err := config.LoadHealthBands(viper.GetViper())
	if err != nil {
		return nil, err
	}
	opts := []xldash.Option{
		xldash.WithLayout(layout),
		xldash.WithHealthBands(bands),
		xldash.WithLogger(slog.Default()),
	}
	return xldash.NewBuilder(append(opts, extra...)...), nil
}

// openSpreadsheet opens the Google Sheets spreadsheet named by id, or by
// sheets.spreadsheet_id in the config when id is empty.
func openSpreadsheet(ctx context.Context, id string) (*sheets.Workbook, error) {
	if id != "" {
		viper.Set("sheets.spreadsheet_id", id)
	}
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets config: %w", err)
	}
	wb, err := sheets.Open(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	return wb, nil
}

// target describes where a command reads or writes, for log lines.
func target(path, spreadsheetID string) string {
	if spreadsheetID != "" {
		return "sheets:" + spreadsheetID
	}
	return path
}
