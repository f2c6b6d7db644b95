package xldash

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSampleWorkbook(t *testing.T) {
	f := sampleFile(t)

	assert.Equal(t, []string{"Dashboard", "Raw Data"}, f.GetSheetList())

	header, err := f.GetRows("Raw Data")
	require.NoError(t, err)
	require.Len(t, header, 187)
	assert.Equal(t, []string{"Order ID", "Year", "Quarter", "Product", "Revenue", "Margin %", "Margin Revenue"}, header[0])

	first := header[1]
	assert.Equal(t, "2023", first[1])
	assert.Equal(t, "Q1", first[2])
	assert.Equal(t, "Widget Pro", first[3])
	assert.Equal(t, "Widget Standard", header[2][3])
	assert.Equal(t, "Q2", header[5][2], "quarters advance after every product")

	cell := func(name string) string {
		v, err := f.GetCellValue("Dashboard", name)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Product", cell("A7"))
	assert.Equal(t, "Widget Pro", cell("A8"))
	assert.Equal(t, "2023 Q1", cell("B8"))
	assert.Equal(t, "2024 Q4", cell("B15"))
	assert.Equal(t, "Widget Standard", cell("A16"))
	assert.Equal(t, "Accessory Kit", cell("A39"))
	assert.Empty(t, cell("A40"))
}

func TestSampleWorkbook_Deterministic(t *testing.T) {
	read := func(seed uint64) [][]string {
		f, err := NewBuilder().SampleWorkbook(seed)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Raw Data")
		require.NoError(t, err)
		return rows
	}
	assert.Equal(t, read(7), read(7))
	assert.NotEqual(t, read(7), read(8))
}

func TestSampleWorkbook_FollowsLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.RawDataSheet = "Orders"
	layout.RawLastRow = 20
	layout.SummaryRows = 4

	f, err := NewBuilder(WithLayout(layout)).SampleWorkbook(1)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 20)

	v, err := f.GetCellValue("Dashboard", "B11")
	require.NoError(t, err)
	assert.Equal(t, "2023 Q4", v)
	v, err = f.GetCellValue("Dashboard", "A12")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSampleWorkbook_InvalidLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.Products = nil

	f, err := NewBuilder(WithLayout(layout)).SampleWorkbook(1)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	path := filepath.Join(t.TempDir(), "sample.xlsx")
	assert.ErrorIs(t, WriteSample(path, 1, WithLayout(layout)), ErrInvalidLayout)
	assert.NoFileExists(t, path)
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	require.NoError(t, WriteSample(path, 3))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Raw Data", "D187")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}
