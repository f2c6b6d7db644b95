package xldash

import (
	"fmt"
	"strconv"
	"strings"
)

// FormulaSet builds the formula strings the dashboard writes. Formulas are
// returned without the leading "=" and are evaluated by the host, never here.
type FormulaSet struct {
	layout Layout
	bands  HealthBands
}

// NewFormulaSet creates a FormulaSet for the layout and health bands.
func NewFormulaSet(layout Layout, bands HealthBands) *FormulaSet {
	return &FormulaSet{layout: layout, bands: bands}
}

// SummaryRow holds the five derived formulas of one summary row.
type SummaryRow struct {
	Row     int // 1-based sheet row
	Revenue string
	Margin  string
	Trend   string
	YoY     string
	Health  string
}

// Formulas returns the row's formulas in column order C..G.
func (s SummaryRow) Formulas() []string {
	return []string{s.Revenue, s.Margin, s.Trend, s.YoY, s.Health}
}

// periodFilter is the SUMIFS criteria pairs selecting raw rows whose
// product, year and quarter match the summary row.
func (fs *FormulaSet) periodFilter(row int) string {
	l := fs.layout
	r := strconv.Itoa(row)
	return strings.Join([]string{
		l.rawColumn(l.RawColumns.Product).Absolute(), "$A" + r,
		l.rawColumn(l.RawColumns.Year).Absolute(), "VALUE(LEFT($B" + r + ",4))",
		l.rawColumn(l.RawColumns.Quarter).Absolute(), "RIGHT($B" + r + ",2)",
	}, ",")
}

// Revenue sums raw revenue for the row's product and quarter.
func (fs *FormulaSet) Revenue(row int) string {
	return fmt.Sprintf("SUMIFS(%s,%s)", fs.layout.rawColumn(fs.layout.RawColumns.Revenue).Absolute(), fs.periodFilter(row))
}

// Margin is the revenue-weighted margin: margin-revenue over revenue.
// A zero revenue yields the host's #DIV/0! error.
func (fs *FormulaSet) Margin(row int) string {
	return fmt.Sprintf("SUMIFS(%s,%s)/C%d", fs.layout.rawColumn(fs.layout.RawColumns.MarginRevenue).Absolute(), fs.periodFilter(row), row)
}

// Trend is the margin change against the previous row; "N/A" for the
// base period. The previous row must be the same product's prior quarter.
func (fs *FormulaSet) Trend(row int) string {
	return fmt.Sprintf(`IF(AND(LEFT($B%d,4)=%s,RIGHT($B%d,2)=%s),"N/A",D%d-D%d)`,
		row, quoteString(fs.layout.BaseYear), row, quoteString(fs.layout.BaseQuarter), row, row-1)
}

// YoY is the margin change against the same product and quarter one year
// earlier. The prior row is found by exact match on product and
// "<year-1> <quarter>" over the summary keys; a missing row yields #N/A and
// the base year yields "N/A". No range is concatenated, so the formula
// needs no array evaluation.
func (fs *FormulaSet) YoY(row int) string {
	l := fs.layout
	first, last := l.SummaryFirstRow, l.SummaryLastRow()
	keys := fmt.Sprintf(`$A$%d:$A$%d,"="&$A%d,$B$%d:$B$%d,"="&(VALUE(LEFT($B%d,4))-1)&" "&RIGHT($B%d,2)`,
		first, last, row, first, last, row, row)
	return fmt.Sprintf(`IF(LEFT($B%d,4)=%s,"N/A",IF(COUNTIFS(%s)=0,NA(),D%d-SUMIFS($D$%d:$D$%d,%s)))`,
		row, quoteString(l.BaseYear), keys, row, first, last, keys)
}

// Health classifies the row's margin by the health bands.
func (fs *FormulaSet) Health(row int) string {
	return fs.bands.Formula("D" + strconv.Itoa(row))
}

// Summary returns all five formulas of a summary row.
func (fs *FormulaSet) Summary(row int) SummaryRow {
	return SummaryRow{
		Row:     row,
		Revenue: fs.Revenue(row),
		Margin:  fs.Margin(row),
		Trend:   fs.Trend(row),
		YoY:     fs.YoY(row),
		Health:  fs.Health(row),
	}
}

// sumProduct sums valueCol over the raw rows of one product whose year
// and quarter match the label in column A of row.
func (fs *FormulaSet) sumProduct(product string, row int, valueCol string) string {
	l := fs.layout
	r := strconv.Itoa(row)
	return fmt.Sprintf("SUMPRODUCT((%s=%s)*(%s=VALUE(LEFT($A%s,4)))*(%s=RIGHT($A%s,2))*(%s))",
		l.rawColumn(l.RawColumns.Product).Absolute(), quoteString(product),
		l.rawColumn(l.RawColumns.Year).Absolute(), r,
		l.rawColumn(l.RawColumns.Quarter).Absolute(), r,
		l.rawColumn(valueCol).Absolute())
}

// ProductMargin is one product's weighted margin for the chart-data row's
// quarter. Same semantics as Margin, written as multiply-and-sum.
func (fs *FormulaSet) ProductMargin(product string, row int) string {
	return fs.sumProduct(product, row, fs.layout.RawColumns.MarginRevenue) + "/" +
		fs.sumProduct(product, row, fs.layout.RawColumns.Revenue)
}

// TotalRevenue sums the summary table's revenue column for the chart-data
// row's quarter label.
func (fs *FormulaSet) TotalRevenue(row int) string {
	l := fs.layout
	first, last := l.SummaryFirstRow, l.SummaryLastRow()
	return fmt.Sprintf("SUMIF($B$%d:$B$%d,$A%d,$C$%d:$C$%d)", first, last, row, first, last)
}
