package xldash

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ExcelizeWorkbook implements Workbook and Calculator on a local .xlsx file.
// Mutations apply to the in-memory file; Sync saves it to the output path.
type ExcelizeWorkbook struct {
	file       *excelize.File
	outputPath string
	styleCache map[CellStyle]int // CellStyle → excelize style ID
	syncs      int

	mu sync.Mutex // protects concurrent access
}

// NewExcelizeWorkbook wraps an excelize file. An empty outputPath makes
// Sync a checkpoint without a save.
func NewExcelizeWorkbook(f *excelize.File, outputPath string) *ExcelizeWorkbook {
	return &ExcelizeWorkbook{
		file:       f,
		outputPath: outputPath,
		styleCache: make(map[CellStyle]int),
	}
}

// OpenWorkbook opens an xlsx file. Checkpoints save to outputPath, or back
// to path when outputPath is empty.
func OpenWorkbook(path, outputPath string) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	if outputPath == "" {
		outputPath = path
	}
	return NewExcelizeWorkbook(f, outputPath), nil
}

// File returns the underlying excelize file.
func (wb *ExcelizeWorkbook) File() *excelize.File { return wb.file }

// Syncs returns how many checkpoints have completed.
func (wb *ExcelizeWorkbook) Syncs() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.syncs
}

// Close closes the underlying file.
func (wb *ExcelizeWorkbook) Close() error {
	return wb.file.Close()
}

// SheetNames returns all sheet names.
func (wb *ExcelizeWorkbook) SheetNames() ([]string, error) {
	return wb.file.GetSheetList(), nil
}

// ClearRange removes values, formulas and styles from every cell of the area.
func (wb *ExcelizeWorkbook) ClearRange(area AreaRef) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	sheet := area.First.Sheet
	for _, ref := range area.Cells() {
		if err := wb.file.SetCellValue(sheet, ref.CellName(), nil); err != nil {
			return err
		}
	}
	return wb.file.SetCellStyle(sheet, area.First.CellName(), area.Last.CellName(), 0)
}

// SetFormula sets a formula on a cell, keeping its style.
func (wb *ExcelizeWorkbook) SetFormula(ref CellRef, formula string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.file.SetCellFormula(ref.Sheet, ref.CellName(), formula)
}

// SetValue sets a literal value on a cell, keeping its style.
func (wb *ExcelizeWorkbook) SetValue(ref CellRef, value any) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.file.SetCellValue(ref.Sheet, ref.CellName(), value)
}

// SetStyle replaces the style of every cell in the area.
func (wb *ExcelizeWorkbook) SetStyle(area AreaRef, style CellStyle) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	id, err := wb.styleID(style)
	if err != nil {
		return err
	}
	return wb.file.SetCellStyle(area.First.Sheet, area.First.CellName(), area.Last.CellName(), id)
}

func (wb *ExcelizeWorkbook) styleID(style CellStyle) (int, error) {
	if id, ok := wb.styleCache[style]; ok {
		return id, nil
	}
	id, err := wb.file.NewStyle(excelizeStyle(style))
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	wb.styleCache[style] = id
	return id, nil
}

// excelizeStyle maps a CellStyle onto excelize's style model.
func excelizeStyle(style CellStyle) *excelize.Style {
	s := &excelize.Style{}
	if style.Bold || style.FontColor != "" {
		s.Font = &excelize.Font{Bold: style.Bold, Color: style.FontColor}
	}
	if style.FillColor != "" {
		s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{style.FillColor}}
	}
	if style.NumberFormat != "" {
		numFmt := style.NumberFormat
		s.CustomNumFmt = &numFmt
	}
	return s
}

// AddChart adds the combo chart: margin series as clustered columns, the
// revenue series as a line on the secondary axis. A chart a previous run
// anchored at the same cell is deleted first.
func (wb *ExcelizeWorkbook) AddChart(sheet string, spec ChartSpec) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	anchor, err := ParseCellRef(spec.Placement.Cell)
	if err != nil {
		return fmt.Errorf("chart anchor: %w", err)
	}
	if err := wb.file.DeleteChart(sheet, anchor.CellName()); err != nil {
		return fmt.Errorf("delete previous chart: %w", err)
	}

	columns := &excelize.Chart{
		Type:   excelize.Col,
		Series: excelizeSeries(spec, RoleMargin),
		Format: excelize.GraphicOptions{
			OffsetX: spec.Placement.OffsetX,
			OffsetY: spec.Placement.OffsetY,
		},
		Dimension: excelize.ChartDimension{Width: spec.Placement.Width, Height: spec.Placement.Height},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Title:     []excelize.RichTextRun{{Text: spec.Title, Font: &excelize.Font{Size: spec.TitleSize}}},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
			NumFmt:         excelize.ChartNumFmt{CustomNumFmt: "0%"},
			Title:          axisTitle(spec.PrimaryAxisTitle, spec.AxisTitleSize),
		},
	}
	revenue := excelizeSeries(spec, RoleRevenue)
	if len(revenue) == 0 {
		return wb.file.AddChart(sheet, anchor.CellName(), columns)
	}
	line := &excelize.Chart{
		Type:   excelize.Line,
		Series: revenue,
		YAxis: excelize.ChartAxis{
			Secondary: true,
			NumFmt:    excelize.ChartNumFmt{CustomNumFmt: "$#,##0"},
			Title:     axisTitle(spec.SecondaryAxisTitle, spec.AxisTitleSize),
		},
	}
	return wb.file.AddChart(sheet, anchor.CellName(), columns, line)
}

func excelizeSeries(spec ChartSpec, role SeriesRole) []excelize.ChartSeries {
	var out []excelize.ChartSeries
	for _, s := range spec.SeriesByRole(role) {
		out = append(out, excelize.ChartSeries{
			Name:       s.Name.Absolute(),
			Categories: spec.Categories.Absolute(),
			Values:     s.Values.Absolute(),
		})
	}
	return out
}

func axisTitle(text string, size float64) []excelize.RichTextRun {
	if text == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: text, Font: &excelize.Font{Size: size}}}
}

// ReplaceConditionalFormats removes every conditional format overlapping
// the area, then installs one "cell equals text" rule per entry.
func (wb *ExcelizeWorkbook) ReplaceConditionalFormats(area AreaRef, rules []ConditionalRule) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	sheet := area.First.Sheet
	if err := wb.unsetOverlapping(sheet, area); err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	opts := make([]excelize.ConditionalFormatOptions, 0, len(rules))
	for _, rule := range rules {
		format, err := wb.file.NewConditionalStyle(excelizeStyle(rule.Style))
		if err != nil {
			return fmt.Errorf("create conditional style for %q: %w", rule.Text, err)
		}
		opts = append(opts, excelize.ConditionalFormatOptions{
			Type:     "cell",
			Criteria: "==",
			Format:   &format,
			Value:    quoteString(rule.Text),
		})
	}
	return wb.file.SetConditionalFormat(sheet, area.Range(), opts)
}

// unsetOverlapping drops conditional format blocks until none touches the
// area. Each unset removes one block, so the listing is re-read.
func (wb *ExcelizeWorkbook) unsetOverlapping(sheet string, area AreaRef) error {
	for {
		formats, err := wb.file.GetConditionalFormats(sheet)
		if err != nil {
			return fmt.Errorf("read conditional formats: %w", err)
		}
		removed := false
		for sqref := range formats {
			if !sqrefOverlaps(sqref, area) {
				continue
			}
			if err := wb.file.UnsetConditionalFormat(sheet, sqref); err != nil {
				return fmt.Errorf("unset conditional format %s: %w", sqref, err)
			}
			removed = true
		}
		if !removed {
			return nil
		}
	}
}

// sqrefOverlaps reports whether any range of a space-separated sqref
// ("G8:G39 H2") overlaps the area.
func sqrefOverlaps(sqref string, area AreaRef) bool {
	for _, part := range strings.Fields(sqref) {
		a, err := ParseAreaRef(part)
		if err != nil {
			continue
		}
		if a.Overlaps(area) {
			return true
		}
	}
	return false
}

// Sync saves the file to the output path.
func (wb *ExcelizeWorkbook) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.outputPath != "" {
		if err := wb.file.SaveAs(wb.outputPath); err != nil {
			return fmt.Errorf("save workbook %q: %w", wb.outputPath, err)
		}
	}
	wb.syncs++
	return nil
}

// Calculate evaluates the cell with excelize's formula engine and returns
// the unformatted result. The engine has no element-wise comparison over
// ranges, so the chart-data SUMPRODUCT margins do not evaluate correctly
// here; the summary table and the chart-data revenue column do.
func (wb *ExcelizeWorkbook) Calculate(ctx context.Context, ref CellRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()

	v, err := wb.file.CalcCellValue(ref.Sheet, ref.CellName(), excelize.Options{RawCellValue: true})
	if err != nil && strings.HasPrefix(v, "#") {
		// Formula errors (#DIV/0!, #N/A) are cell values.
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("calculate %s: %w", ref, err)
	}
	return v, nil
}
