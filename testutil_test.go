package xldash

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var errFake = errors.New("fake failure")

// fakeWorkbook records what the pipeline writes. Cell contents are keyed
// by "Sheet!A1".
type fakeWorkbook struct {
	sheets   []string
	formulas map[string]string
	values   map[string]any
	styles   map[string]CellStyle
	charts   []ChartSpec
	rules    map[string][]ConditionalRule

	ops      []string // operation kinds, in call order
	syncs    int
	stagedAt []int // len(ops) at each sync

	failOp   string // operation kind that fails
	syncErr  error
	sheetErr error
}

func newFakeWorkbook(sheets ...string) *fakeWorkbook {
	if len(sheets) == 0 {
		sheets = []string{"Dashboard", "Raw Data"}
	}
	return &fakeWorkbook{
		sheets:   sheets,
		formulas: map[string]string{},
		values:   map[string]any{},
		styles:   map[string]CellStyle{},
		rules:    map[string][]ConditionalRule{},
	}
}

func (f *fakeWorkbook) record(op string) error {
	f.ops = append(f.ops, op)
	if op == f.failOp {
		return errFake
	}
	return nil
}

func (f *fakeWorkbook) SheetNames() ([]string, error) {
	if f.sheetErr != nil {
		return nil, f.sheetErr
	}
	return f.sheets, nil
}

func (f *fakeWorkbook) ClearRange(area AreaRef) error {
	if err := f.record("clear"); err != nil {
		return err
	}
	for _, c := range area.Cells() {
		delete(f.formulas, c.String())
		delete(f.values, c.String())
		delete(f.styles, c.String())
	}
	return nil
}

func (f *fakeWorkbook) SetFormula(ref CellRef, formula string) error {
	if err := f.record("formula"); err != nil {
		return err
	}
	delete(f.values, ref.String())
	f.formulas[ref.String()] = formula
	return nil
}

func (f *fakeWorkbook) SetValue(ref CellRef, value any) error {
	if err := f.record("value"); err != nil {
		return err
	}
	delete(f.formulas, ref.String())
	f.values[ref.String()] = value
	return nil
}

func (f *fakeWorkbook) SetStyle(area AreaRef, style CellStyle) error {
	if err := f.record("style"); err != nil {
		return err
	}
	for _, c := range area.Cells() {
		f.styles[c.String()] = style
	}
	return nil
}

func (f *fakeWorkbook) AddChart(_ string, spec ChartSpec) error {
	if err := f.record("chart"); err != nil {
		return err
	}
	kept := f.charts[:0]
	for _, c := range f.charts {
		if c.Placement.Cell != spec.Placement.Cell {
			kept = append(kept, c)
		}
	}
	f.charts = append(kept, spec)
	return nil
}

func (f *fakeWorkbook) ReplaceConditionalFormats(area AreaRef, rules []ConditionalRule) error {
	if err := f.record("rules"); err != nil {
		return err
	}
	for key := range f.rules {
		if other, err := ParseAreaRef(key); err == nil && other.Overlaps(area) {
			delete(f.rules, key)
		}
	}
	f.rules[area.String()] = append([]ConditionalRule(nil), rules...)
	return nil
}

func (f *fakeWorkbook) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.syncErr != nil {
		return f.syncErr
	}
	f.syncs++
	f.stagedAt = append(f.stagedAt, len(f.ops))
	return nil
}

// recordingListener logs listener calls as "before:<step>" and
// "after:<step>" (with ":err" on failure).
type recordingListener struct {
	events []string
}

func (r *recordingListener) BeforeStep(name string, _, _ int) {
	r.events = append(r.events, "before:"+name)
}

func (r *recordingListener) AfterStep(name string, _, _ int, err error) {
	e := "after:" + name
	if err != nil {
		e += ":err"
	}
	r.events = append(r.events, e)
}

// sampleFile returns an in-memory sample workbook for the default layout.
func sampleFile(t *testing.T) *excelize.File {
	t.Helper()
	f, err := NewBuilder().SampleWorkbook(1)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// dashboardFile writes a workbook with Dashboard and Raw Data sheets and
// no data, returning its path.
func dashboardFile(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Dashboard"))
	_, err := f.NewSheet("Raw Data")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// yearOverYearWorkbook builds the dashboard over three raw rows of one
// product: 2023 Q1 (margin 0.4), 2024 Q1 (0.5) and 2024 Q2 (0.3). The
// summary has no 2023 Q2 row.
func yearOverYearWorkbook(t *testing.T) *ExcelizeWorkbook {
	t.Helper()
	f, err := excelize.OpenFile(dashboardFile(t))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	raw := [][]any{
		{2023, "Q1", "Widget Pro", 1000, 400},
		{2024, "Q1", "Widget Pro", 1000, 500},
		{2024, "Q2", "Widget Pro", 1000, 300},
	}
	for i, r := range raw {
		row := strconv.Itoa(i + 2)
		for j, col := range []string{"B", "C", "D", "E", "G"} {
			require.NoError(t, f.SetCellValue("Raw Data", col+row, r[j]))
		}
	}
	for i, key := range []string{"2023 Q1", "2024 Q1", "2024 Q2"} {
		row := strconv.Itoa(i + 8)
		require.NoError(t, f.SetCellValue("Dashboard", "A"+row, "Widget Pro"))
		require.NoError(t, f.SetCellValue("Dashboard", "B"+row, key))
	}

	wb := NewExcelizeWorkbook(f, "")
	require.NoError(t, NewBuilder(WithLogger(quietLogger())).Run(context.Background(), wb))
	return wb
}
