package xldash

import (
	"fmt"
	"strconv"
	"strings"
)

// CellRef represents a single cell reference in a workbook.
type CellRef struct {
	Sheet string // sheet name (empty = current sheet)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// Cell creates a CellRef from a column name and a 1-based row number,
// the way addresses are written in a sheet: Cell("Dashboard", "C", 8).
func Cell(sheet, col string, row int) CellRef {
	c, err := NameToCol(col)
	if err != nil {
		panic(fmt.Sprintf("xldash: %v", err))
	}
	return CellRef{Sheet: sheet, Row: row - 1, Col: c}
}

// ParseCellRef parses a cell reference string like "A1", "Sheet1!B5",
// "'Raw Data'!$E$2" or "$A$1".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	var sheet string
	cellPart := s
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = unquoteSheet(s[:idx])
		cellPart = s[idx+1:]
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	if cellPart == "" {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, row, err := parseCellName(cellPart)
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}
	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

// parseCellName parses "A1" into col=0, row=0.
func parseCellName(name string) (col, row int, err error) {
	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", name)
	}

	col, err = NameToCol(name[:i])
	if err != nil {
		return 0, 0, err
	}
	rowNum, err := strconv.Atoi(name[i:])
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row in cell name: %q", name)
	}
	return col, rowNum - 1, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellRef as "Sheet1!A1", "'Raw Data'!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	if c.Sheet != "" {
		return QuoteSheet(c.Sheet) + "!" + c.CellName()
	}
	return c.CellName()
}

// CellName returns just the cell part like "A1" without sheet name.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + strconv.Itoa(c.Row+1)
}

// Absolute returns the sheet-qualified absolute form, e.g. "Dashboard!$B$43".
func (c CellRef) Absolute() string {
	abs := "$" + ColToName(c.Col) + "$" + strconv.Itoa(c.Row+1)
	if c.Sheet != "" {
		return QuoteSheet(c.Sheet) + "!" + abs
	}
	return abs
}

// Offset returns the reference moved by the given rows and columns.
func (c CellRef) Offset(rows, cols int) CellRef {
	return CellRef{Sheet: c.Sheet, Row: c.Row + rows, Col: c.Col + cols}
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// QuoteSheet quotes a sheet name for use in a formula when it contains
// anything other than letters, digits, '_' and '.'.
func QuoteSheet(name string) string {
	plain := name != ""
	for i := 0; i < len(name); i++ {
		b := name[i]
		if !isAlpha(b) && (b < '0' || b > '9') && b != '_' && b != '.' {
			plain = false
			break
		}
	}
	if plain && !(name[0] >= '0' && name[0] <= '9') {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func unquoteSheet(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// AreaRef represents a rectangular area defined by two cell references.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// NewAreaRef creates an AreaRef from two cell references.
func NewAreaRef(first, last CellRef) AreaRef {
	return AreaRef{First: first, Last: last}
}

// ParseAreaRef parses an area reference string like "A1:C5",
// "Sheet1!A1:C5" or a single cell "B2" (a 1x1 area).
func ParseAreaRef(s string) (AreaRef, error) {
	s = strings.TrimSpace(s)
	sheet := ""
	body := s
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = unquoteSheet(s[:idx])
		body = s[idx+1:]
	}

	from, to, ok := strings.Cut(body, ":")
	if !ok {
		to = from
	}

	first, err := ParseCellRef(from)
	if err != nil {
		return AreaRef{}, fmt.Errorf("invalid area reference %q: %w", s, err)
	}
	last, err := ParseCellRef(to)
	if err != nil {
		return AreaRef{}, fmt.Errorf("invalid area reference %q: %w", s, err)
	}
	first.Sheet, last.Sheet = sheet, sheet

	if first.Row > last.Row {
		first.Row, last.Row = last.Row, first.Row
	}
	if first.Col > last.Col {
		first.Col, last.Col = last.Col, first.Col
	}
	return AreaRef{First: first, Last: last}, nil
}

// MustArea is ParseAreaRef for literal addresses; it panics on error.
func MustArea(sheet, s string) AreaRef {
	a, err := ParseAreaRef(s)
	if err != nil {
		panic(fmt.Sprintf("xldash: %v", err))
	}
	a.First.Sheet, a.Last.Sheet = sheet, sheet
	return a
}

// String formats the AreaRef as "Sheet1!A1:C5" or "A1:C5".
func (a AreaRef) String() string {
	if a.First.Sheet != "" {
		return QuoteSheet(a.First.Sheet) + "!" + a.Range()
	}
	return a.Range()
}

// Range returns the area without sheet name, like "C8:G39".
func (a AreaRef) Range() string {
	return a.First.CellName() + ":" + a.Last.CellName()
}

// Absolute returns the sheet-qualified absolute form,
// e.g. "'Raw Data'!$E$2:$E$187".
func (a AreaRef) Absolute() string {
	first := CellRef{Row: a.First.Row, Col: a.First.Col}
	last := CellRef{Row: a.Last.Row, Col: a.Last.Col}
	body := first.Absolute() + ":" + last.Absolute()
	if a.First.Sheet != "" {
		return QuoteSheet(a.First.Sheet) + "!" + body
	}
	return body
}

// Width returns the number of columns in the area.
func (a AreaRef) Width() int { return a.Last.Col - a.First.Col + 1 }

// Height returns the number of rows in the area.
func (a AreaRef) Height() int { return a.Last.Row - a.First.Row + 1 }

// Contains returns true if the given cell reference is within this area.
func (a AreaRef) Contains(ref CellRef) bool {
	if a.First.Sheet != "" && a.First.Sheet != ref.Sheet {
		return false
	}
	return ref.Row >= a.First.Row && ref.Row <= a.Last.Row &&
		ref.Col >= a.First.Col && ref.Col <= a.Last.Col
}

// Cells returns every cell of the area in row-major order.
func (a AreaRef) Cells() []CellRef {
	cells := make([]CellRef, 0, a.Width()*a.Height())
	for row := a.First.Row; row <= a.Last.Row; row++ {
		for col := a.First.Col; col <= a.Last.Col; col++ {
			cells = append(cells, CellRef{Sheet: a.First.Sheet, Row: row, Col: col})
		}
	}
	return cells
}

// Overlaps reports whether the two areas share at least one cell. Sheet
// names are ignored.
func (a AreaRef) Overlaps(b AreaRef) bool {
	return a.First.Row <= b.Last.Row && b.First.Row <= a.Last.Row &&
		a.First.Col <= b.Last.Col && b.First.Col <= a.Last.Col
}
