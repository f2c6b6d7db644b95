package xldash

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Column headers of the sample sheets. Raw columns A and F are not read by
// the dashboard.
var (
	sampleRawHeader     = []string{"Order ID", "Year", "Quarter", "Product", "Revenue", "Margin %", "Margin Revenue"}
	sampleSummaryHeader = []string{"Product", "Quarter", "Revenue", "Margin", "QoQ Trend", "YoY Change", "Health"}
)

// Base margin per product position; the sample drifts around it.
var sampleMargins = []float64{0.38, 0.27, 0.45, 0.16}

// SampleWorkbook builds a workbook with the sheets, raw data schema and
// summary keys the layout expects. The same seed gives the same data.
func (b *Builder) SampleWorkbook(seed uint64) (*excelize.File, error) {
	if err := b.checkLayout(); err != nil {
		return nil, err
	}
	l := b.layout
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", l.DashboardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(l.RawDataSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %q: %w", l.RawDataSheet, err)
	}
	if err := b.writeSampleRaw(f, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))); err != nil {
		f.Close()
		return nil, err
	}
	if err := b.writeSampleKeys(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteSample saves a sample workbook to path.
func WriteSample(path string, seed uint64, opts ...Option) error {
	f, err := NewBuilder(opts...).SampleWorkbook(seed)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save sample %q: %w", path, err)
	}
	return nil
}

// writeSampleRaw fills the raw data rows, cycling product then quarter so
// every (product, quarter) pair gets rows.
func (b *Builder) writeSampleRaw(f *excelize.File, rng *rand.Rand) error {
	l := b.layout
	sheet := l.RawDataSheet
	if err := writeRow(f, sheet, "A", l.RawFirstRow-1, sampleRawHeader); err != nil {
		return err
	}
	cols := l.RawColumns
	i := 0
	for row := l.RawFirstRow; row <= l.RawLastRow; row++ {
		p := i % len(l.Products)
		q := (i / len(l.Products)) % len(l.ChartQuarters)
		i++
		year, quarter := periodOf(l.ChartQuarters[q])
		yearNum, err := strconv.Atoi(year)
		if err != nil {
			return fmt.Errorf("sample quarter %q: %w", l.ChartQuarters[q], err)
		}

		revenue := math.Round(500 + rng.Float64()*4500)
		margin := sampleMargins[p%len(sampleMargins)] + (rng.Float64()-0.5)*0.1
		margin = math.Round(margin*1000) / 1000
		// Layout columns are written last so they win over the filler columns.
		values := []struct {
			col string
			v   any
		}{
			{"A", "ORD-" + strconv.Itoa(10000+row)},
			{"F", margin},
			{cols.Year, yearNum},
			{cols.Quarter, quarter},
			{cols.Product, l.Products[p]},
			{cols.Revenue, revenue},
			{cols.MarginRevenue, math.Round(revenue*margin*100) / 100},
		}
		for _, c := range values {
			if err := f.SetCellValue(sheet, c.col+strconv.Itoa(row), c.v); err != nil {
				return fmt.Errorf("write sample %s%d: %w", c.col, row, err)
			}
		}
	}
	return nil
}

// writeSampleKeys writes the summary header and the product/quarter keys,
// one contiguous chronological block per product.
func (b *Builder) writeSampleKeys(f *excelize.File) error {
	l := b.layout
	sheet := l.DashboardSheet
	if err := f.SetCellValue(sheet, "A1", "Margin Dashboard"); err != nil {
		return err
	}
	if err := writeRow(f, sheet, "A", l.SummaryFirstRow-1, sampleSummaryHeader); err != nil {
		return err
	}
	row := l.SummaryFirstRow
	for _, product := range l.Products {
		for _, quarter := range l.ChartQuarters {
			if row > l.SummaryLastRow() {
				return nil
			}
			if err := f.SetCellValue(sheet, "A"+strconv.Itoa(row), product); err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, "B"+strconv.Itoa(row), quarter); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet, col string, row int, values []string) error {
	if row < 1 {
		return nil
	}
	cell := col + strconv.Itoa(row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write header %s!%s: %w", sheet, cell, err)
	}
	return nil
}
