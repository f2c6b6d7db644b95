package xldash

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Report describes what a built dashboard contains.
type Report struct {
	Path  string `yaml:"path" json:"path"`
	Sheet string `yaml:"sheet" json:"sheet"`

	SummaryFormulas int `yaml:"summary_formulas" json:"summary_formulas"`
	SummaryCells    int `yaml:"summary_cells" json:"summary_cells"`

	ChartDataFormulas int      `yaml:"chart_data_formulas" json:"chart_data_formulas"`
	ChartDataHeader   []string `yaml:"chart_data_header" json:"chart_data_header"`

	// HealthRules lists the values of the conditional rules on the
	// health range, in priority order.
	HealthRules []string `yaml:"health_rules" json:"health_rules"`

	Charts []ChartInfo `yaml:"charts" json:"charts"`
}

// Complete reports whether every summary cell holds a formula, the health
// rules match the band labels and exactly one chart is present.
func (r *Report) Complete(bands HealthBands) bool {
	return r.SummaryFormulas == r.SummaryCells &&
		strings.Join(r.HealthRules, "\x00") == strings.Join(bands.Labels(), "\x00") &&
		len(r.Charts) == 1
}

// String renders the report as indented text.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %s\n", r.Path)
	fmt.Fprintf(&b, "Sheet: %s\n", r.Sheet)
	fmt.Fprintf(&b, "  Summary formulas: %d/%d\n", r.SummaryFormulas, r.SummaryCells)
	fmt.Fprintf(&b, "  Chart data formulas: %d\n", r.ChartDataFormulas)
	if len(r.ChartDataHeader) > 0 {
		fmt.Fprintf(&b, "  Chart data header: %s\n", strings.Join(r.ChartDataHeader, " | "))
	}
	fmt.Fprintf(&b, "  Health rules: %d %q\n", len(r.HealthRules), r.HealthRules)
	fmt.Fprintf(&b, "  Charts: %d\n", len(r.Charts))
	for _, c := range r.Charts {
		fmt.Fprintf(&b, "    %s %q\n", c.Anchor, c.Title)
		for _, g := range c.Groups {
			fmt.Fprintf(&b, "      %s axis=%s series=%s\n", g.Type, g.Axis, strings.Join(g.Series, ","))
		}
	}
	return b.String()
}

// Inspect reads a workbook and reports the dashboard the layout describes.
func Inspect(path string, opts ...Option) (*Report, error) {
	return NewBuilder(opts...).Inspect(path)
}

// Inspect reads the workbook at path without modifying it.
func (b *Builder) Inspect(path string) (*Report, error) {
	if err := b.checkLayout(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	l := b.layout
	sheet := l.DashboardSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	r := &Report{Path: path, Sheet: sheet}

	region := l.FormulaRegion()
	r.SummaryCells = region.Width() * region.Height()
	if r.SummaryFormulas, err = countFormulas(f, region); err != nil {
		return nil, err
	}

	table := l.ChartTable()
	if r.ChartDataFormulas, err = countFormulas(f, table); err != nil {
		return nil, err
	}
	for col := table.First.Col; col <= table.Last.Col; col++ {
		ref := NewCellRef(sheet, table.First.Row, col)
		v, err := f.GetCellValue(sheet, ref.CellName())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ref, err)
		}
		r.ChartDataHeader = append(r.ChartDataHeader, v)
	}

	if r.HealthRules, err = ruleValues(f, l.HealthRange()); err != nil {
		return nil, err
	}

	if r.Charts, err = ReadCharts(path, sheet); err != nil {
		return nil, fmt.Errorf("read charts: %w", err)
	}
	return r, nil
}

func countFormulas(f *excelize.File, area AreaRef) (int, error) {
	n := 0
	for _, ref := range area.Cells() {
		formula, err := f.GetCellFormula(area.First.Sheet, ref.CellName())
		if err != nil {
			return 0, fmt.Errorf("read formula %s: %w", ref, err)
		}
		if formula != "" {
			n++
		}
	}
	return n, nil
}

// ruleValues returns the unquoted values of the conditional rules
// overlapping the area.
func ruleValues(f *excelize.File, area AreaRef) ([]string, error) {
	formats, err := f.GetConditionalFormats(area.First.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read conditional formats: %w", err)
	}
	refs := make([]string, 0, len(formats))
	for sqref := range formats {
		if sqrefOverlaps(sqref, area) {
			refs = append(refs, sqref)
		}
	}
	sort.Strings(refs)

	var values []string
	for _, sqref := range refs {
		for _, opt := range formats[sqref] {
			values = append(values, unquoteFormulaString(opt.Value))
		}
	}
	return values, nil
}

// unquoteFormulaString reverses quoteString; other values pass through.
func unquoteFormulaString(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
