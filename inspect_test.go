package xldash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInspect_Built(t *testing.T) {
	out := buildFile(t, dashboardFile(t))

	report, err := Inspect(out)
	require.NoError(t, err)

	assert.Equal(t, "Dashboard", report.Sheet)
	assert.Equal(t, 160, report.SummaryCells)
	assert.Equal(t, 160, report.SummaryFormulas)
	assert.Equal(t, 24, report.ChartDataFormulas)
	assert.Equal(t, []string{"Quarter", "Widget Pro", "Widget Standard", "Service Package", "Accessory Kit", "Total Revenue"}, report.ChartDataHeader)
	assert.Equal(t, DefaultHealthBands.Labels(), report.HealthRules)
	require.Len(t, report.Charts, 1)
	assert.True(t, report.Complete(DefaultHealthBands))

	text := report.String()
	assert.Contains(t, text, "Summary formulas: 160/160")
	assert.Contains(t, text, "Chart data formulas: 24")
	assert.Contains(t, text, `A18 "Quarterly Margin Trends by Product"`)
	assert.Contains(t, text, "line axis=")
}

func TestInspect_CompleteChartColumns(t *testing.T) {
	out := buildFile(t, dashboardFile(t), WithCompleteChartColumns(true))

	report, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 40, report.ChartDataFormulas)
}

func TestInspect_Unbuilt(t *testing.T) {
	report, err := Inspect(dashboardFile(t))
	require.NoError(t, err)

	assert.Zero(t, report.SummaryFormulas)
	assert.Empty(t, report.HealthRules)
	assert.Empty(t, report.Charts)
	assert.False(t, report.Complete(DefaultHealthBands))
}

func TestInspect_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "plain.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrSheetNotFound)

	_, err = ReadCharts(path, "Dashboard")
	assert.ErrorIs(t, err, ErrSheetNotFound)

	charts, err := ReadCharts(path, "Sheet1")
	require.NoError(t, err)
	assert.Empty(t, charts)
}

func TestInspect_InvalidLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.SummaryFirstRow = 0

	_, err := Inspect(dashboardFile(t), WithLayout(layout))
	assert.ErrorIs(t, err, ErrInvalidLayout)
	assert.ErrorContains(t, err, "summary_first_row")
}

func TestReadCharts_NotAPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ReadCharts(path, "Dashboard")
	assert.Error(t, err)
}

func TestResolvePart(t *testing.T) {
	assert.Equal(t, "xl/drawings/drawing1.xml", resolvePart("xl/worksheets/", "../drawings/drawing1.xml"))
	assert.Equal(t, "xl/charts/chart1.xml", resolvePart("xl/drawings/", "/xl/charts/chart1.xml"))
	assert.Equal(t, "xl/worksheets/sheet1.xml", resolvePart("xl/", "worksheets/sheet1.xml"))
}

func TestUnquoteFormulaString(t *testing.T) {
	assert.Equal(t, "Strong", unquoteFormulaString(`"Strong"`))
	assert.Equal(t, `say "hi"`, unquoteFormulaString(`"say ""hi"""`))
	assert.Equal(t, "0.35", unquoteFormulaString("0.35"))
	assert.Equal(t, `"`, unquoteFormulaString(`"`))
}
