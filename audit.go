package xldash

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Audit check names.
const (
	CheckHealth    = "health"
	CheckTrendBase = "trend-base"
	CheckTrend     = "trend"
	CheckYoYBase   = "yoy-base"
	CheckYoY       = "yoy"
)

// Finding is a computed summary value that disagrees with the rule it
// should follow.
type Finding struct {
	Cell  string `yaml:"cell" json:"cell"`
	Check string `yaml:"check" json:"check"`
	Got   string `yaml:"got" json:"got"`
	Want  string `yaml:"want" json:"want"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s: got %q, want %q", f.Cell, f.Check, f.Got, f.Want)
}

// AuditResult lists the findings of one audit.
type AuditResult struct {
	RowsChecked int       `yaml:"rows_checked" json:"rows_checked"`
	Findings    []Finding `yaml:"findings" json:"findings"`
}

// OK reports whether the audit found nothing.
func (a *AuditResult) OK() bool { return len(a.Findings) == 0 }

// String renders one line per finding after a count line.
func (a *AuditResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows checked: %d\n", a.RowsChecked)
	fmt.Fprintf(&b, "Findings: %d\n", len(a.Findings))
	for _, f := range a.Findings {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return b.String()
}

const deltaTolerance = 1e-9

// Audit checks the computed summary table of a built dashboard.
func Audit(ctx context.Context, calc Calculator, opts ...Option) (*AuditResult, error) {
	return NewBuilder(opts...).Audit(ctx, calc)
}

// Audit recalculates the summary table and checks the health label, the
// base-period sentinels, the trend difference and the year-over-year
// difference of every row. Rows whose margin is a formula error are
// skipped.
func (b *Builder) Audit(ctx context.Context, calc Calculator) (*AuditResult, error) {
	if err := b.checkLayout(); err != nil {
		return nil, err
	}
	l := b.layout
	sheet := l.DashboardSheet
	res := &AuditResult{}

	var rows []auditedRow
	for row := l.SummaryFirstRow; row <= l.SummaryLastRow(); row++ {
		cells := make(map[string]string, 6)
		for _, col := range []string{"A", "B", "D", "E", "F", "G"} {
			v, err := calc.Calculate(ctx, Cell(sheet, col, row))
			if err != nil {
				return nil, fmt.Errorf("audit row %d: %w", row, err)
			}
			cells[col] = v
			// Formulas of a row without keys are not evaluated.
			if col == "B" && cells["A"] == "" && v == "" {
				break
			}
		}
		rows = append(rows, auditedRow{row: row, cells: cells})
	}

	// Summary keys, product then quarter label, for the year-over-year lookup.
	keys := make(map[[2]string]auditedRow, len(rows))
	for _, r := range rows {
		k := [2]string{r.cells["A"], strings.TrimSpace(r.cells["B"])}
		if _, dup := keys[k]; !dup {
			keys[k] = r
		}
	}

	var prev auditedRow
	for _, r := range rows {
		if r.blank() {
			prev = auditedRow{}
			continue
		}
		res.RowsChecked++
		res.Findings = append(res.Findings, b.auditRow(sheet, r, prev, keys)...)
		prev = r
	}
	return res, nil
}

// auditedRow holds the computed values of one summary row by column.
type auditedRow struct {
	row   int
	cells map[string]string
}

func (r auditedRow) blank() bool { return r.cells["A"] == "" && r.cells["B"] == "" }

func (b *Builder) auditRow(sheet string, r auditedRow, prev auditedRow, keys map[[2]string]auditedRow) []Finding {
	l := b.layout
	cells := r.cells
	var findings []Finding
	cell := func(col string) string { return Cell(sheet, col, r.row).CellName() }

	year, quarter := periodOf(cells["B"])
	baseYear := year == l.BaseYear

	if baseYear && quarter == l.BaseQuarter && cells["E"] != "N/A" {
		findings = append(findings, Finding{Cell: cell("E"), Check: CheckTrendBase, Got: cells["E"], Want: "N/A"})
	}
	if baseYear && cells["F"] != "N/A" {
		findings = append(findings, Finding{Cell: cell("F"), Check: CheckYoYBase, Got: cells["F"], Want: "N/A"})
	}

	margin, err := strconv.ParseFloat(cells["D"], 64)
	if err != nil {
		return findings
	}
	want, err := b.bands.Classify(margin)
	if err == nil && cells["G"] != want {
		findings = append(findings, Finding{Cell: cell("G"), Check: CheckHealth, Got: cells["G"], Want: want})
	}

	if !(baseYear && quarter == l.BaseQuarter) && !prev.blank() && prev.cells["A"] == cells["A"] {
		if f, ok := checkDelta(cell("E"), CheckTrend, cells["E"], margin, prev.cells["D"]); !ok {
			findings = append(findings, f)
		}
	}

	if !baseYear && year != "" {
		if f, ok := b.checkYoY(cell("F"), cells, year, quarter, margin, keys); !ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// checkYoY compares F with the margin difference to the same product and
// quarter one year earlier. A missing prior row must show #N/A.
func (b *Builder) checkYoY(ref string, cells map[string]string, year, quarter string, margin float64, keys map[[2]string]auditedRow) (Finding, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return Finding{}, true
	}
	prior, found := keys[[2]string{cells["A"], strconv.Itoa(y-1) + " " + quarter}]
	if !found {
		if cells["F"] != "#N/A" {
			return Finding{Cell: ref, Check: CheckYoY, Got: cells["F"], Want: "#N/A"}, false
		}
		return Finding{}, true
	}
	return checkDelta(ref, CheckYoY, cells["F"], margin, prior.cells["D"])
}

// checkDelta reports whether got equals margin minus the other margin.
// Non-numeric operands are not checked.
func checkDelta(ref, check, got string, margin float64, other string) (Finding, bool) {
	base, berr := strconv.ParseFloat(other, 64)
	delta, derr := strconv.ParseFloat(got, 64)
	if berr != nil || derr != nil || math.Abs(delta-(margin-base)) <= deltaTolerance {
		return Finding{}, true
	}
	return Finding{
		Cell: ref, Check: check, Got: got,
		Want: strconv.FormatFloat(margin-base, 'f', -1, 64),
	}, false
}

// periodOf splits a quarter label into its 4-character year prefix and
// 2-character quarter suffix, the way the summary formulas read it.
func periodOf(label string) (year, quarter string) {
	label = strings.TrimSpace(label)
	if len(label) < 6 {
		return "", ""
	}
	return label[:4], label[len(label)-2:]
}
