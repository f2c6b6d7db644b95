package xldash

import (
	"context"
	"errors"
)

// ErrSheetNotFound is returned when a sheet the dashboard needs is missing.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook abstracts the host document. Mutations are staged and become
// durable or visible to the host at Sync; implementations decide what a
// sync means (saving a file, sending a batch request).
type Workbook interface {
	SheetNames() ([]string, error)

	// ClearRange removes content and formatting, not structure.
	ClearRange(area AreaRef) error
	SetFormula(ref CellRef, formula string) error
	SetValue(ref CellRef, value any) error
	SetStyle(area AreaRef, style CellStyle) error

	// AddChart adds the chart to the sheet, replacing a chart a previous
	// run placed at the same position.
	AddChart(sheet string, spec ChartSpec) error

	// ReplaceConditionalFormats drops every rule on the area and installs
	// rules in order.
	ReplaceConditionalFormats(area AreaRef, rules []ConditionalRule) error

	Sync(ctx context.Context) error
}

// Calculator is implemented by workbooks that can report a cell's
// computed value.
type Calculator interface {
	Calculate(ctx context.Context, ref CellRef) (string, error)
}

// CellStyle is the subset of formatting the dashboard applies. Colors are
// RGB hex without '#'. Zero fields leave that attribute at its default.
type CellStyle struct {
	Bold         bool
	FontColor    string
	FillColor    string
	NumberFormat string
}

// SeriesRole tells a backend how to draw a series.
type SeriesRole int

const (
	// RoleMargin series are clustered columns on the primary axis.
	RoleMargin SeriesRole = iota
	// RoleRevenue series are lines on the secondary axis.
	RoleRevenue
)

// String returns "margin" or "revenue".
func (r SeriesRole) String() string {
	if r == RoleRevenue {
		return "revenue"
	}
	return "margin"
}

// ChartSeries binds one chart series to the chart-data table.
type ChartSeries struct {
	Name   CellRef // header cell holding the series name
	Values AreaRef
	Role   SeriesRole
}

// ChartSpec describes the combo chart.
type ChartSpec struct {
	Title              string
	TitleSize          float64
	Categories         AreaRef
	Series             []ChartSeries
	PrimaryAxisTitle   string
	SecondaryAxisTitle string
	AxisTitleSize      float64
	Placement          ChartPlacement
}

// SeriesByRole returns the series with the given role, in table order.
func (c ChartSpec) SeriesByRole(role SeriesRole) []ChartSeries {
	var out []ChartSeries
	for _, s := range c.Series {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// ConditionalRule colors a cell whose value equals Text.
type ConditionalRule struct {
	Text  string
	Style CellStyle
}

// hasSheet reports whether name is among the workbook's sheets.
func hasSheet(wb Workbook, name string) (bool, error) {
	names, err := wb.SheetNames()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
