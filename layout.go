package xldash

import "strconv"

// RawColumns names the columns of the raw data sheet the formulas read.
type RawColumns struct {
	Year          string `mapstructure:"year" yaml:"year" json:"year"`
	Quarter       string `mapstructure:"quarter" yaml:"quarter" json:"quarter"`
	Product       string `mapstructure:"product" yaml:"product" json:"product"`
	Revenue       string `mapstructure:"revenue" yaml:"revenue" json:"revenue"`
	MarginRevenue string `mapstructure:"margin_revenue" yaml:"margin_revenue" json:"margin_revenue"`
}

// ChartPlacement positions the chart: anchored at Cell, shifted by the
// pixel offsets, sized Width x Height pixels.
type ChartPlacement struct {
	Cell    string `mapstructure:"cell" yaml:"cell" json:"cell"`
	OffsetX int    `mapstructure:"offset_x" yaml:"offset_x" json:"offset_x"`
	OffsetY int    `mapstructure:"offset_y" yaml:"offset_y" json:"offset_y"`
	Width   uint   `mapstructure:"width" yaml:"width" json:"width"`
	Height  uint   `mapstructure:"height" yaml:"height" json:"height"`
}

// Layout describes where the dashboard reads from and writes to. Every
// address the pipeline touches is derived from it; DefaultLayout matches
// the workbook the dashboard was designed for.
type Layout struct {
	DashboardSheet string     `mapstructure:"dashboard_sheet" yaml:"dashboard_sheet" json:"dashboard_sheet"`
	RawDataSheet   string     `mapstructure:"raw_data_sheet" yaml:"raw_data_sheet" json:"raw_data_sheet"`
	RawFirstRow    int        `mapstructure:"raw_first_row" yaml:"raw_first_row" json:"raw_first_row"`
	RawLastRow     int        `mapstructure:"raw_last_row" yaml:"raw_last_row" json:"raw_last_row"`
	RawColumns     RawColumns `mapstructure:"raw_columns" yaml:"raw_columns" json:"raw_columns"`

	SummaryFirstRow int    `mapstructure:"summary_first_row" yaml:"summary_first_row" json:"summary_first_row"`
	SummaryRows     int    `mapstructure:"summary_rows" yaml:"summary_rows" json:"summary_rows"`
	BaseYear        string `mapstructure:"base_year" yaml:"base_year" json:"base_year"`
	BaseQuarter     string `mapstructure:"base_quarter" yaml:"base_quarter" json:"base_quarter"`

	Products             []string `mapstructure:"products" yaml:"products" json:"products"`
	ChartQuarters        []string `mapstructure:"chart_quarters" yaml:"chart_quarters" json:"chart_quarters"`
	CompleteChartColumns bool     `mapstructure:"complete_chart_columns" yaml:"complete_chart_columns" json:"complete_chart_columns"`

	ChartTitle string         `mapstructure:"chart_title" yaml:"chart_title" json:"chart_title"`
	Chart      ChartPlacement `mapstructure:"chart" yaml:"chart" json:"chart"`

	CurrencyFormat string `mapstructure:"currency_format" yaml:"currency_format" json:"currency_format"`
	PercentFormat  string `mapstructure:"percent_format" yaml:"percent_format" json:"percent_format"`
}

// Product columns populated in the chart-data table unless
// CompleteChartColumns is set.
const defaultChartFormulaProducts = 2

// DefaultLayout returns the layout of the quarterly margin workbook:
// summary rows 8-39, chart data A42:F51, raw data rows 2-187.
func DefaultLayout() Layout {
	return Layout{
		DashboardSheet: "Dashboard",
		RawDataSheet:   "Raw Data",
		RawFirstRow:    2,
		RawLastRow:     187,
		RawColumns: RawColumns{
			Year:          "B",
			Quarter:       "C",
			Product:       "D",
			Revenue:       "E",
			MarginRevenue: "G",
		},
		SummaryFirstRow: 8,
		SummaryRows:     32,
		BaseYear:        "2023",
		BaseQuarter:     "Q1",
		Products:        []string{"Widget Pro", "Widget Standard", "Service Package", "Accessory Kit"},
		ChartQuarters: []string{
			"2023 Q1", "2023 Q2", "2023 Q3", "2023 Q4",
			"2024 Q1", "2024 Q2", "2024 Q3", "2024 Q4",
		},
		ChartTitle: "Quarterly Margin Trends by Product",
		// 350px down, 50px right of A1 at the default 20px row height.
		Chart:          ChartPlacement{Cell: "A18", OffsetX: 50, OffsetY: 10, Width: 600, Height: 300},
		CurrencyFormat: "$#,##0",
		PercentFormat:  "0.0%",
	}
}

// SummaryLastRow is the 1-based number of the last summary row.
func (l Layout) SummaryLastRow() int { return l.SummaryFirstRow + l.SummaryRows - 1 }

// SummaryColumn returns a summary column (e.g. "D") over all summary rows.
func (l Layout) SummaryColumn(col string) AreaRef {
	return MustArea(l.DashboardSheet, col+strconv.Itoa(l.SummaryFirstRow)+":"+col+strconv.Itoa(l.SummaryLastRow()))
}

// FormulaRegion is the summary area the pipeline owns (C..G); the
// product and quarter key columns A..B are inputs.
func (l Layout) FormulaRegion() AreaRef {
	return MustArea(l.DashboardSheet, "C"+strconv.Itoa(l.SummaryFirstRow)+":G"+strconv.Itoa(l.SummaryLastRow()))
}

// HealthRange is the column holding the health classification.
func (l Layout) HealthRange() AreaRef { return l.SummaryColumn("G") }

// ChartLabelRow is the 1-based row of the "Chart Data" label, two blank
// rows below the summary table.
func (l Layout) ChartLabelRow() int { return l.SummaryLastRow() + 3 }

// ChartHeaderRow is the 1-based row of the chart-data header.
func (l Layout) ChartHeaderRow() int { return l.ChartLabelRow() + 1 }

// ChartFirstRow is the 1-based first data row of the chart-data table.
func (l Layout) ChartFirstRow() int { return l.ChartHeaderRow() + 1 }

// ChartLastRow is the 1-based last data row of the chart-data table.
func (l Layout) ChartLastRow() int { return l.ChartFirstRow() + len(l.ChartQuarters) - 1 }

// ChartRevenueColumn is the column holding total revenue, right of the
// product columns.
func (l Layout) ChartRevenueColumn() string { return ColToName(len(l.Products) + 1) }

// ChartRegion is the whole chart-data area, label row included.
func (l Layout) ChartRegion() AreaRef {
	return MustArea(l.DashboardSheet, "A"+strconv.Itoa(l.ChartLabelRow())+":"+
		l.ChartRevenueColumn()+strconv.Itoa(l.ChartLastRow()))
}

// ChartTable is the chart source: header row plus data rows.
func (l Layout) ChartTable() AreaRef {
	return MustArea(l.DashboardSheet, "A"+strconv.Itoa(l.ChartHeaderRow())+":"+
		l.ChartRevenueColumn()+strconv.Itoa(l.ChartLastRow()))
}

// chartColumn returns one column of the chart-data rows.
func (l Layout) chartColumn(col string) AreaRef {
	return MustArea(l.DashboardSheet, col+strconv.Itoa(l.ChartFirstRow())+":"+col+strconv.Itoa(l.ChartLastRow()))
}

// ChartMarginRange covers the per-product margin cells.
func (l Layout) ChartMarginRange() AreaRef {
	return MustArea(l.DashboardSheet, "B"+strconv.Itoa(l.ChartFirstRow())+":"+
		ColToName(len(l.Products))+strconv.Itoa(l.ChartLastRow()))
}

// ChartRevenueRange covers the total revenue cells.
func (l Layout) ChartRevenueRange() AreaRef { return l.chartColumn(l.ChartRevenueColumn()) }

// chartFormulaProducts is how many product columns receive formulas.
func (l Layout) chartFormulaProducts() int {
	if l.CompleteChartColumns || len(l.Products) < defaultChartFormulaProducts {
		return len(l.Products)
	}
	return defaultChartFormulaProducts
}

// rawColumn returns a raw data column over the raw data rows.
func (l Layout) rawColumn(col string) AreaRef {
	return MustArea(l.RawDataSheet, col+strconv.Itoa(l.RawFirstRow)+":"+col+strconv.Itoa(l.RawLastRow))
}
