package xldash

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildFile(t *testing.T, path string, opts ...Option) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "built.xlsx")
	wb, err := OpenWorkbook(path, out)
	require.NoError(t, err)
	defer wb.Close()

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	require.NoError(t, NewBuilder(opts...).Run(context.Background(), wb))
	assert.Equal(t, 4, wb.Syncs())
	return out
}

func TestExcelizeWorkbook_Run(t *testing.T) {
	out := buildFile(t, dashboardFile(t))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	formula, err := f.GetCellFormula("Dashboard", "G8")
	require.NoError(t, err)
	assert.Equal(t, DefaultHealthBands.Formula("D8"), formula)

	formula, err = f.GetCellFormula("Dashboard", "F51")
	require.NoError(t, err)
	assert.Equal(t, NewBuilder().Formulas().TotalRevenue(51), formula)

	label, err := f.GetCellValue("Dashboard", "A42")
	require.NoError(t, err)
	assert.Equal(t, "Chart Data", label)

	header, err := f.GetCellValue("Dashboard", "F43")
	require.NoError(t, err)
	assert.Equal(t, "Total Revenue", header)
}

func TestExcelizeWorkbook_Chart(t *testing.T) {
	out := buildFile(t, dashboardFile(t))

	charts, err := ReadCharts(out, "Dashboard")
	require.NoError(t, err)
	require.Len(t, charts, 1)

	chart := charts[0]
	assert.Equal(t, "A18", chart.Anchor)
	assert.Equal(t, "Quarterly Margin Trends by Product", chart.Title)
	assert.Equal(t, 14.0, chart.TitleSize)
	assert.False(t, chart.TitleBold)
	require.Len(t, chart.Groups, 2)
	assert.Equal(t, "bar", chart.Groups[0].Type)
	assert.Equal(t, []string{"Dashboard!$B$43", "Dashboard!$C$43", "Dashboard!$D$43", "Dashboard!$E$43"}, chart.Groups[0].Series)
	assert.Equal(t, "line", chart.Groups[1].Type)
	assert.Equal(t, []string{"Dashboard!$F$43"}, chart.Groups[1].Series)
	assert.True(t, chart.SecondaryAxis())
	assert.Contains(t, chart.AxisTitles, "Profit Margin")
	assert.Contains(t, chart.AxisTitles, "Total Revenue ($)")
}

func TestExcelizeWorkbook_RerunIsIdempotent(t *testing.T) {
	first := buildFile(t, dashboardFile(t))
	second := buildFile(t, first)

	report, err := Inspect(second)
	require.NoError(t, err)
	assert.Len(t, report.Charts, 1)
	assert.Equal(t, []string{"Strong", "Moderate", "At Risk"}, report.HealthRules)
	assert.True(t, report.Complete(DefaultHealthBands))
}

func TestExcelizeWorkbook_ReplacesOverlappingRules(t *testing.T) {
	path := dashboardFile(t)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	format, err := f.NewConditionalStyle(&excelize.Style{Font: &excelize.Font{Color: "FF0000"}})
	require.NoError(t, err)
	stale := []excelize.ConditionalFormatOptions{{Type: "cell", Criteria: ">", Format: &format, Value: "0"}}
	require.NoError(t, f.SetConditionalFormat("Dashboard", "G1:H10", stale))
	require.NoError(t, f.SetConditionalFormat("Dashboard", "G8:G39", stale))
	require.NoError(t, f.SetConditionalFormat("Dashboard", "A1:A5", stale))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	out := buildFile(t, path)

	f, err = excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	formats, err := f.GetConditionalFormats("Dashboard")
	require.NoError(t, err)
	assert.Len(t, formats["A1:A5"], 1, "rules off the health column stay")
	assert.NotContains(t, formats, "G1:H10")
	require.Len(t, formats["G8:G39"], 3)
	assert.Equal(t, `"Strong"`, formats["G8:G39"][0].Value)
	assert.Equal(t, `"At Risk"`, formats["G8:G39"][2].Value)
}

func TestExcelizeWorkbook_NumberFormats(t *testing.T) {
	out := buildFile(t, dashboardFile(t))
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	numFmt := func(cell string) string {
		id, err := f.GetCellStyle("Dashboard", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(id)
		require.NoError(t, err)
		if style.CustomNumFmt == nil {
			return ""
		}
		return *style.CustomNumFmt
	}
	assert.Equal(t, "$#,##0", numFmt("C8"))
	assert.Equal(t, "0.0%", numFmt("D20"))
	assert.Equal(t, "0.0%", numFmt("F39"))
	assert.Equal(t, "0.0%", numFmt("C44"))
	assert.Equal(t, "$#,##0", numFmt("F51"))

	id, err := f.GetCellStyle("Dashboard", "A43")
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, 1, style.Fill.Pattern)
}

func TestExcelizeWorkbook_Calculate(t *testing.T) {
	f := sampleFile(t)
	wb := NewExcelizeWorkbook(f, "")
	ctx := context.Background()
	require.NoError(t, NewBuilder(WithLogger(quietLogger())).Run(ctx, wb))

	require.NoError(t, wb.SetValue(Cell("Dashboard", "D", 8), 0.4))
	v, err := wb.Calculate(ctx, Cell("Dashboard", "G", 8))
	require.NoError(t, err)
	assert.Equal(t, HealthStrong, v)

	require.NoError(t, wb.SetValue(Cell("Dashboard", "D", 8), 0.2))
	v, err = wb.Calculate(ctx, Cell("Dashboard", "G", 8))
	require.NoError(t, err)
	assert.Equal(t, HealthModerate, v)

	require.NoError(t, wb.SetFormula(Cell("Dashboard", "H", 1), "1/0"))
	v, err = wb.Calculate(ctx, Cell("Dashboard", "H", 1))
	require.NoError(t, err)
	assert.Equal(t, "#DIV/0!", v)

	v, err = wb.Calculate(ctx, Cell("Dashboard", "A", 8))
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", v)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = wb.Calculate(canceled, Cell("Dashboard", "A", 8))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExcelizeWorkbook_ClearRange(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	wb := NewExcelizeWorkbook(f, "")

	require.NoError(t, wb.SetValue(Cell("Sheet1", "B", 2), "keep?"))
	require.NoError(t, wb.SetFormula(Cell("Sheet1", "C", 3), "1+1"))
	require.NoError(t, wb.SetStyle(MustArea("Sheet1", "B2:C3"), CellStyle{Bold: true}))
	require.NoError(t, wb.SetValue(Cell("Sheet1", "D", 4), "outside"))

	require.NoError(t, wb.ClearRange(MustArea("Sheet1", "B2:C3")))

	v, err := f.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Empty(t, v)
	formula, err := f.GetCellFormula("Sheet1", "C3")
	require.NoError(t, err)
	assert.Empty(t, formula)
	id, err := f.GetCellStyle("Sheet1", "B2")
	require.NoError(t, err)
	assert.Zero(t, id)
	v, err = f.GetCellValue("Sheet1", "D4")
	require.NoError(t, err)
	assert.Equal(t, "outside", v)
}

func TestExcelizeWorkbook_StyleCache(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	wb := NewExcelizeWorkbook(f, "")

	style := CellStyle{NumberFormat: "0.0%"}
	require.NoError(t, wb.SetStyle(MustArea("Sheet1", "A1:A2"), style))
	require.NoError(t, wb.SetStyle(MustArea("Sheet1", "B1:B2"), style))
	assert.Len(t, wb.styleCache, 1)

	a, err := f.GetCellStyle("Sheet1", "A1")
	require.NoError(t, err)
	b, err := f.GetCellStyle("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExcelizeWorkbook_SyncWithoutOutput(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	wb := NewExcelizeWorkbook(f, "")

	require.NoError(t, wb.Sync(context.Background()))
	assert.Equal(t, 1, wb.Syncs())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wb.Sync(ctx), context.Canceled)
	assert.Equal(t, 1, wb.Syncs())
}

func TestOpenWorkbook_Missing(t *testing.T) {
	_, err := OpenWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	assert.Error(t, err)
}

func TestSqrefOverlaps(t *testing.T) {
	health := MustArea("Dashboard", "G8:G39")
	assert.True(t, sqrefOverlaps("G8:G39", health))
	assert.True(t, sqrefOverlaps("A1 G20", health))
	assert.True(t, sqrefOverlaps("F1:H8", health))
	assert.False(t, sqrefOverlaps("H8:H39 A1:A5", health))
	assert.False(t, sqrefOverlaps("bogus", health))
}

func TestExcelizeWorkbook_EndToEndSingleRow(t *testing.T) {
	f, err := excelize.OpenFile(dashboardFile(t))
	require.NoError(t, err)
	defer f.Close()
	for cell, v := range map[string]any{"B2": 2023, "C2": "Q1", "D2": "Widget Pro", "E2": 1000, "G2": 400} {
		require.NoError(t, f.SetCellValue("Raw Data", cell, v))
	}
	require.NoError(t, f.SetCellValue("Dashboard", "A8", "Widget Pro"))
	require.NoError(t, f.SetCellValue("Dashboard", "B8", "2023 Q1"))

	wb := NewExcelizeWorkbook(f, "")
	ctx := context.Background()
	require.NoError(t, NewBuilder(WithLogger(quietLogger())).Run(ctx, wb))

	want := map[string]string{"C": "1000", "D": "0.4", "E": "N/A", "F": "N/A", "G": HealthStrong}
	for col, v := range want {
		got, err := wb.Calculate(ctx, Cell("Dashboard", col, 8))
		require.NoError(t, err)
		assert.Equal(t, v, got, "%s8", col)
	}

	// total revenue of the chart-data row for 2023 Q1
	got, err := wb.Calculate(ctx, Cell("Dashboard", "F", 44))
	require.NoError(t, err)
	assert.Equal(t, "1000", got)
}

func TestExcelizeWorkbook_YearOverYear(t *testing.T) {
	wb := yearOverYearWorkbook(t)
	ctx := context.Background()

	calc := func(col string, row int) string {
		v, err := wb.Calculate(ctx, Cell("Dashboard", col, row))
		require.NoError(t, err)
		return v
	}
	margin := func(row int) float64 {
		v, err := strconv.ParseFloat(calc("D", row), 64)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "N/A", calc("F", 8))

	// 2024 Q1 against 2023 Q1
	yoy, err := strconv.ParseFloat(calc("F", 9), 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, yoy, 1e-9)
	assert.InDelta(t, margin(9)-margin(8), yoy, 1e-9)

	// 2024 Q2 has no prior-year row
	assert.Equal(t, "#N/A", calc("F", 10))

	trend, err := strconv.ParseFloat(calc("E", 10), 64)
	require.NoError(t, err)
	assert.InDelta(t, -0.2, trend, 1e-9)
}
