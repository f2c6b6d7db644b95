package xldash

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Step names, in pipeline order.
const (
	StepReset              = "reset"
	StepSummary            = "summary"
	StepNumberFormats      = "number-formats"
	StepChartData          = "chart-data"
	StepChart              = "chart"
	StepConditionalFormats = "conditional-formats"
)

// Labels and styling of the chart-data table and chart.
const (
	chartDataLabel     = "Chart Data"
	quarterHeader      = "Quarter"
	totalRevenueHeader = "Total Revenue"
	headerFill         = "4472C4"
	headerFont         = "FFFFFF"

	chartTitleSize     = 14
	axisTitleSize      = 10
	primaryAxisTitle   = "Profit Margin"
	secondaryAxisTitle = "Total Revenue ($)"
)

// Builder runs the dashboard pipeline against a Workbook.
type Builder struct {
	layout    Layout
	bands     HealthBands
	formulas  *FormulaSet
	logger    *slog.Logger
	listeners []StepListener
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.completeChartColumns != nil {
		o.layout.CompleteChartColumns = *o.completeChartColumns
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		layout:    o.layout,
		bands:     o.bands,
		formulas:  NewFormulaSet(o.layout, o.bands),
		logger:    logger,
		listeners: o.listeners,
	}
}

// Layout returns the layout the builder writes.
func (b *Builder) Layout() Layout { return b.layout }

// HealthBands returns the classification the builder writes.
func (b *Builder) HealthBands() HealthBands { return b.bands }

// Formulas returns the formula set the builder writes.
func (b *Builder) Formulas() *FormulaSet { return b.formulas }

type step struct {
	name string
	run  func(Workbook) error
	sync bool // checkpoint after the step
}

func (b *Builder) steps() []step {
	return []step{
		{name: StepReset, run: b.reset},
		{name: StepSummary, run: b.writeSummary, sync: true},
		{name: StepNumberFormats, run: b.applyNumberFormats},
		{name: StepChartData, run: b.writeChartData, sync: true},
		{name: StepChart, run: b.addChart, sync: true},
		{name: StepConditionalFormats, run: b.replaceConditionalFormats, sync: true},
	}
}

// StepNames returns the pipeline step names in order.
func StepNames() []string {
	return []string{StepReset, StepSummary, StepNumberFormats, StepChartData, StepChart, StepConditionalFormats}
}

// Run executes the pipeline. The first failing step aborts the run and is
// returned as *StepError; steps flushed at an earlier checkpoint stay
// applied.
func (b *Builder) Run(ctx context.Context, wb Workbook) error {
	if err := b.checkLayout(); err != nil {
		return err
	}

	start := time.Now()
	steps := b.steps()
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		b.notifyBefore(s.name, i, len(steps))
		b.logger.Debug("step started", "step", s.name)

		err := s.run(wb)
		if err == nil && s.sync {
			if err = wb.Sync(ctx); err != nil {
				err = fmt.Errorf("sync: %w", err)
			}
		}

		b.notifyAfter(s.name, i, len(steps), err)
		if err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		b.logger.Debug("step finished", "step", s.name, "checkpoint", s.sync)
	}

	b.logger.Info("dashboard built",
		"sheet", b.layout.DashboardSheet,
		"summary_rows", b.layout.SummaryRows,
		"chart_rows", len(b.layout.ChartQuarters),
		"duration", time.Since(start))
	return nil
}

func (b *Builder) notifyBefore(name string, index, total int) {
	for _, l := range b.listeners {
		l.BeforeStep(name, index, total)
	}
}

func (b *Builder) notifyAfter(name string, index, total int, err error) {
	for _, l := range b.listeners {
		l.AfterStep(name, index, total, err)
	}
}

// reset clears the summary formula region and the chart-data region.
func (b *Builder) reset(wb Workbook) error {
	for _, name := range []string{b.layout.DashboardSheet, b.layout.RawDataSheet} {
		ok, err := hasSheet(wb, name)
		if err != nil {
			return fmt.Errorf("list sheets: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}
	}
	for _, area := range []AreaRef{b.layout.FormulaRegion(), b.layout.ChartRegion()} {
		if err := wb.ClearRange(area); err != nil {
			return fmt.Errorf("clear %s: %w", area, err)
		}
	}
	return nil
}

// writeSummary stages the five formulas of every summary row.
func (b *Builder) writeSummary(wb Workbook) error {
	sheet := b.layout.DashboardSheet
	cols := []string{"C", "D", "E", "F", "G"}
	for row := b.layout.SummaryFirstRow; row <= b.layout.SummaryLastRow(); row++ {
		for i, formula := range b.formulas.Summary(row).Formulas() {
			ref := Cell(sheet, cols[i], row)
			if err := wb.SetFormula(ref, formula); err != nil {
				return fmt.Errorf("set formula %s: %w", ref, err)
			}
		}
	}
	return nil
}

// applyNumberFormats sets currency and percentage display formats.
func (b *Builder) applyNumberFormats(wb Workbook) error {
	l := b.layout
	currency := CellStyle{NumberFormat: l.CurrencyFormat}
	percent := CellStyle{NumberFormat: l.PercentFormat}
	formats := []struct {
		area  AreaRef
		style CellStyle
	}{
		{l.SummaryColumn("C"), currency},
		{l.SummaryColumn("D"), percent},
		{l.SummaryColumn("E"), percent},
		{l.SummaryColumn("F"), percent},
		{l.ChartMarginRange(), percent},
		{l.ChartRevenueRange(), currency},
	}
	for _, f := range formats {
		if err := wb.SetStyle(f.area, f.style); err != nil {
			return fmt.Errorf("format %s: %w", f.area, err)
		}
	}
	return nil
}

// writeChartData writes the label, header, quarter labels and formulas of
// the chart-data table.
func (b *Builder) writeChartData(wb Workbook) error {
	l := b.layout
	sheet := l.DashboardSheet

	label := Cell(sheet, "A", l.ChartLabelRow())
	if err := wb.SetValue(label, chartDataLabel); err != nil {
		return fmt.Errorf("set value %s: %w", label, err)
	}
	if err := wb.SetStyle(NewAreaRef(label, label), CellStyle{Bold: true}); err != nil {
		return fmt.Errorf("style %s: %w", label, err)
	}

	header := append(append([]string{quarterHeader}, l.Products...), totalRevenueHeader)
	headerRow := l.ChartHeaderRow()
	for i, text := range header {
		ref := NewCellRef(sheet, headerRow-1, i)
		if err := wb.SetValue(ref, text); err != nil {
			return fmt.Errorf("set value %s: %w", ref, err)
		}
	}
	headerArea := NewAreaRef(NewCellRef(sheet, headerRow-1, 0), NewCellRef(sheet, headerRow-1, len(header)-1))
	if err := wb.SetStyle(headerArea, CellStyle{Bold: true, FontColor: headerFont, FillColor: headerFill}); err != nil {
		return fmt.Errorf("style %s: %w", headerArea, err)
	}

	products := l.Products[:l.chartFormulaProducts()]
	revenueCol := l.ChartRevenueColumn()
	for i, quarter := range l.ChartQuarters {
		row := l.ChartFirstRow() + i
		ref := Cell(sheet, "A", row)
		if err := wb.SetValue(ref, quarter); err != nil {
			return fmt.Errorf("set value %s: %w", ref, err)
		}
		for p, product := range products {
			ref := NewCellRef(sheet, row-1, p+1)
			if err := wb.SetFormula(ref, b.formulas.ProductMargin(product, row)); err != nil {
				return fmt.Errorf("set formula %s: %w", ref, err)
			}
		}
		ref = Cell(sheet, revenueCol, row)
		if err := wb.SetFormula(ref, b.formulas.TotalRevenue(row)); err != nil {
			return fmt.Errorf("set formula %s: %w", ref, err)
		}
	}
	return nil
}

// ChartSpec returns the combo chart bound to the chart-data table: one
// margin series per product and the revenue series, tagged by role.
func (b *Builder) ChartSpec() ChartSpec {
	l := b.layout
	sheet := l.DashboardSheet
	headerRow := l.ChartHeaderRow() - 1
	series := make([]ChartSeries, 0, len(l.Products)+1)
	for i := range l.Products {
		col := ColToName(i + 1)
		series = append(series, ChartSeries{
			Name:   NewCellRef(sheet, headerRow, i+1),
			Values: l.chartColumn(col),
			Role:   RoleMargin,
		})
	}
	series = append(series, ChartSeries{
		Name:   NewCellRef(sheet, headerRow, len(l.Products)+1),
		Values: l.ChartRevenueRange(),
		Role:   RoleRevenue,
	})
	return ChartSpec{
		Title:              l.ChartTitle,
		TitleSize:          chartTitleSize,
		Categories:         l.chartColumn("A"),
		Series:             series,
		PrimaryAxisTitle:   primaryAxisTitle,
		SecondaryAxisTitle: secondaryAxisTitle,
		AxisTitleSize:      axisTitleSize,
		Placement:          l.Chart,
	}
}

func (b *Builder) addChart(wb Workbook) error {
	if err := wb.AddChart(b.layout.DashboardSheet, b.ChartSpec()); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}

// ConditionalRules returns one text-equality rule per health band.
func (b *Builder) ConditionalRules() []ConditionalRule {
	rules := make([]ConditionalRule, len(b.bands))
	for i, band := range b.bands {
		rules[i] = ConditionalRule{
			Text:  band.Label,
			Style: CellStyle{FillColor: band.FillColor, FontColor: band.FontColor},
		}
	}
	return rules
}

func (b *Builder) replaceConditionalFormats(wb Workbook) error {
	area := b.layout.HealthRange()
	if err := wb.ReplaceConditionalFormats(area, b.ConditionalRules()); err != nil {
		return fmt.Errorf("replace conditional formats on %s: %w", area, err)
	}
	return nil
}

// checkLayout returns ErrInvalidLayout when validation reports an error.
func (b *Builder) checkLayout() error {
	if issues := b.Validate(); hasErrors(issues) {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, firstError(issues))
	}
	return nil
}

func firstError(issues []ValidationIssue) string {
	var msgs []string
	for _, is := range issues {
		if is.Severity == SeverityError {
			msgs = append(msgs, is.Field+": "+is.Message)
		}
	}
	if len(msgs) > 1 {
		return msgs[0] + " (and " + strconv.Itoa(len(msgs)-1) + " more)"
	}
	return strings.Join(msgs, "")
}
