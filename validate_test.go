package xldash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, Validate())
	assert.Empty(t, DefaultLayout().Validate())
}

func TestLayout_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		field  string
	}{
		{"empty dashboard", func(l *Layout) { l.DashboardSheet = "" }, "dashboard_sheet"},
		{"empty raw sheet", func(l *Layout) { l.RawDataSheet = "" }, "raw_data_sheet"},
		{"shared sheet", func(l *Layout) { l.RawDataSheet = l.DashboardSheet }, "raw_data_sheet"},
		{"inverted raw rows", func(l *Layout) { l.RawLastRow = 1 }, "raw_last_row"},
		{"bad raw column", func(l *Layout) { l.RawColumns.Revenue = "E1" }, "raw_columns.revenue"},
		{"lowercase raw column", func(l *Layout) { l.RawColumns.Year = "b" }, "raw_columns.year"},
		{"summary on first row", func(l *Layout) { l.SummaryFirstRow = 1 }, "summary_first_row"},
		{"no summary rows", func(l *Layout) { l.SummaryRows = 0 }, "summary_rows"},
		{"short base year", func(l *Layout) { l.BaseYear = "23" }, "base_year"},
		{"bad base quarter", func(l *Layout) { l.BaseQuarter = "Q5" }, "base_quarter"},
		{"no chart quarters", func(l *Layout) { l.ChartQuarters = nil }, "chart_quarters"},
		{"no products", func(l *Layout) { l.Products = nil }, "products"},
		{"empty product", func(l *Layout) { l.Products = []string{"A", ""} }, "products"},
		{"bad chart cell", func(l *Layout) { l.Chart.Cell = "18A" }, "chart.cell"},
		{"empty chart", func(l *Layout) { l.Chart.Height = 0 }, "chart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultLayout()
			tt.mutate(&l)
			issues := l.Validate()
			assert.True(t, hasErrors(issues))
			assert.Contains(t, fields(issues, SeverityError), tt.field)
		})
	}
}

func TestLayout_ValidateWarnings(t *testing.T) {
	l := DefaultLayout()
	l.ChartQuarters = []string{"2023 Q1", "Q2 2023", "2023 Q1"}
	l.CurrencyFormat = ""
	l.PercentFormat = ""

	issues := l.Validate()
	assert.False(t, hasErrors(issues))
	warnings := fields(issues, SeverityWarning)
	assert.Equal(t, []string{"chart_quarters", "chart_quarters", "currency_format", "percent_format"}, warnings)
}

func TestValidateBands(t *testing.T) {
	tests := []struct {
		name    string
		bands   HealthBands
		wantErr bool
		wantMsg string
	}{
		{"defaults", DefaultHealthBands, false, ""},
		{"empty", HealthBands{}, true, "no bands configured"},
		{"missing label", HealthBands{{Op: ">", Threshold: 0.3}, {Label: "Rest"}}, true, "has no label"},
		{"duplicate label", HealthBands{{Label: "X", Op: ">", Threshold: 0.3}, {Label: "X"}}, true, "used twice"},
		{"no catch-all", HealthBands{{Label: "X", Op: ">", Threshold: 0.3}}, true, "catch-all"},
		{"bad operator", HealthBands{{Label: "X", Op: "<", Threshold: 0.3}, {Label: "Rest"}}, true, "want > or >="},
		{"rising thresholds", HealthBands{
			{Label: "A", Op: ">", Threshold: 0.2},
			{Label: "B", Op: ">", Threshold: 0.3},
			{Label: "C"},
		}, false, "threshold is above"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(WithHealthBands(tt.bands))
			assert.Equal(t, tt.wantErr, hasErrors(issues), "%v", issues)
			if tt.wantMsg == "" {
				assert.Empty(t, issues)
				return
			}
			found := false
			for _, is := range issues {
				if is.Field == "health_bands" && strings.Contains(is.Message, tt.wantMsg) {
					found = true
				}
			}
			assert.True(t, found, "%v", issues)
		})
	}
}

func TestValidationIssue_String(t *testing.T) {
	assert.Equal(t, "[ERROR] summary_rows: must be positive, got 0",
		errorIssue("summary_rows", "must be positive, got %d", 0).String())
	assert.Equal(t, "[WARN] percent_format: empty",
		warnIssue("percent_format", "empty").String())
}

func fields(issues []ValidationIssue, sev Severity) []string {
	var out []string
	for _, is := range issues {
		if is.Severity == sev {
			out = append(out, is.Field)
		}
	}
	return out
}
