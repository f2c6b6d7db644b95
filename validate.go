package xldash

import (
	"fmt"
	"regexp"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Run would fail or write broken addresses
	SeverityWarning                 // Run succeeds but output may be wrong
)

// ValidationIssue is a single problem found in the layout or health bands.
type ValidationIssue struct {
	Severity Severity
	Field    string
	Message  string
}

// String formats the issue as "[ERROR] summary_rows: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Field, v.Message)
}

var (
	yearRe         = regexp.MustCompile(`^\d{4}$`)
	quarterRe      = regexp.MustCompile(`^Q[1-4]$`)
	quarterLabelRe = regexp.MustCompile(`^\d{4} Q[1-4]$`)
	columnRe       = regexp.MustCompile(`^[A-Z]{1,3}$`)
)

// Validate checks the configuration the options produce without touching
// a workbook. Raw data itself is never validated.
func Validate(opts ...Option) []ValidationIssue {
	return NewBuilder(opts...).Validate()
}

// Validate checks the builder's layout and health bands.
func (b *Builder) Validate() []ValidationIssue {
	return append(b.layout.Validate(), validateBands(b.bands)...)
}

// Validate checks that every address the layout derives is well formed.
func (l Layout) Validate() []ValidationIssue {
	var issues []ValidationIssue
	issues = append(issues, validateSheets(l)...)
	issues = append(issues, validateExtents(l)...)
	issues = append(issues, validatePeriods(l)...)
	issues = append(issues, validateChart(l)...)
	return issues
}

func errorIssue(field, format string, args ...any) ValidationIssue {
	return ValidationIssue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)}
}

func warnIssue(field, format string, args ...any) ValidationIssue {
	return ValidationIssue{Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)}
}

func validateSheets(l Layout) []ValidationIssue {
	var issues []ValidationIssue
	if l.DashboardSheet == "" {
		issues = append(issues, errorIssue("dashboard_sheet", "sheet name is empty"))
	}
	if l.RawDataSheet == "" {
		issues = append(issues, errorIssue("raw_data_sheet", "sheet name is empty"))
	}
	if l.DashboardSheet != "" && l.DashboardSheet == l.RawDataSheet {
		issues = append(issues, errorIssue("raw_data_sheet", "raw data and dashboard share sheet %q", l.DashboardSheet))
	}
	return issues
}

func validateExtents(l Layout) []ValidationIssue {
	var issues []ValidationIssue
	if l.RawFirstRow < 1 || l.RawLastRow < l.RawFirstRow {
		issues = append(issues, errorIssue("raw_last_row", "raw data rows %d-%d are not a valid extent", l.RawFirstRow, l.RawLastRow))
	}
	cols := []struct{ field, name string }{
		{"raw_columns.year", l.RawColumns.Year},
		{"raw_columns.quarter", l.RawColumns.Quarter},
		{"raw_columns.product", l.RawColumns.Product},
		{"raw_columns.revenue", l.RawColumns.Revenue},
		{"raw_columns.margin_revenue", l.RawColumns.MarginRevenue},
	}
	for _, c := range cols {
		if !columnRe.MatchString(c.name) {
			issues = append(issues, errorIssue(c.field, "invalid column name %q", c.name))
		}
	}
	// The trend formula reads the row above the first summary row.
	if l.SummaryFirstRow < 2 {
		issues = append(issues, errorIssue("summary_first_row", "must be at least 2, got %d", l.SummaryFirstRow))
	}
	if l.SummaryRows < 1 {
		issues = append(issues, errorIssue("summary_rows", "must be positive, got %d", l.SummaryRows))
	}
	return issues
}

func validatePeriods(l Layout) []ValidationIssue {
	var issues []ValidationIssue
	if !yearRe.MatchString(l.BaseYear) {
		issues = append(issues, errorIssue("base_year", "expected a 4-digit year, got %q", l.BaseYear))
	}
	if !quarterRe.MatchString(l.BaseQuarter) {
		issues = append(issues, errorIssue("base_quarter", "expected Q1..Q4, got %q", l.BaseQuarter))
	}
	if len(l.ChartQuarters) == 0 {
		issues = append(issues, errorIssue("chart_quarters", "no quarters configured"))
	}
	seen := make(map[string]bool, len(l.ChartQuarters))
	for _, q := range l.ChartQuarters {
		if !quarterLabelRe.MatchString(q) {
			issues = append(issues, warnIssue("chart_quarters", "label %q does not match \"YYYY QN\"", q))
		}
		if seen[q] {
			issues = append(issues, warnIssue("chart_quarters", "label %q listed twice", q))
		}
		seen[q] = true
	}
	return issues
}

func validateChart(l Layout) []ValidationIssue {
	var issues []ValidationIssue
	if len(l.Products) == 0 {
		issues = append(issues, errorIssue("products", "no products configured"))
	}
	for _, p := range l.Products {
		if p == "" {
			issues = append(issues, errorIssue("products", "empty product name"))
		}
	}
	if _, err := ParseCellRef(l.Chart.Cell); err != nil {
		issues = append(issues, errorIssue("chart.cell", "%v", err))
	}
	if l.Chart.Width == 0 || l.Chart.Height == 0 {
		issues = append(issues, errorIssue("chart", "size %dx%d is empty", l.Chart.Width, l.Chart.Height))
	}
	if l.CurrencyFormat == "" {
		issues = append(issues, warnIssue("currency_format", "empty format leaves revenue cells unformatted"))
	}
	if l.PercentFormat == "" {
		issues = append(issues, warnIssue("percent_format", "empty format leaves margin cells unformatted"))
	}
	return issues
}

func validateBands(bands HealthBands) []ValidationIssue {
	var issues []ValidationIssue
	if len(bands) == 0 {
		return append(issues, errorIssue("health_bands", "no bands configured"))
	}
	seen := make(map[string]bool, len(bands))
	for i, band := range bands {
		last := i == len(bands)-1
		switch {
		case band.Label == "":
			issues = append(issues, errorIssue("health_bands", "band %d has no label", i))
		case seen[band.Label]:
			issues = append(issues, errorIssue("health_bands", "label %q used twice", band.Label))
		}
		seen[band.Label] = true
		if last && band.Op != "" {
			issues = append(issues, errorIssue("health_bands", "last band %q must be the catch-all (no operator)", band.Label))
		}
		if !last && band.Op != ">" && band.Op != ">=" {
			issues = append(issues, errorIssue("health_bands", "band %q has operator %q, want > or >=", band.Label, band.Op))
		}
		if i > 0 && !last && band.Threshold > bands[i-1].Threshold {
			issues = append(issues, warnIssue("health_bands", "band %q threshold is above the previous band's; it can never match values the previous band rejects", band.Label))
		}
	}
	return issues
}

// hasErrors reports whether any issue has error severity.
func hasErrors(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}
