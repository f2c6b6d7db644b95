package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/javajack/xldash"
	"google.golang.org/api/sheets/v4"
)

// metadataFields selects the sheet properties, charts and conditional
// rules the workbook tracks.
const metadataFields = "sheets(properties(sheetId,title),charts(chartId,spec(title)),conditionalFormats)"

// Workbook implements xldash.Workbook and xldash.Calculator on a Google
// Sheets spreadsheet. Every mutation is staged as a request; Sync sends the
// staged requests as one batchUpdate, in order.
type Workbook struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger

	sheetIDs map[string]int64
	order    []string
	charts   map[int64][]*sheets.EmbeddedChart
	rules    map[int64][]*sheets.ConditionalFormatRule

	pending []*sheets.Request
	batches int
}

// Open authenticates with the config's credentials and loads the
// spreadsheet's metadata.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Workbook, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewWorkbook(ctx, service, config.SpreadsheetID, logger)
}

// NewWorkbook wraps an existing service and loads the spreadsheet's metadata.
func NewWorkbook(ctx context.Context, service *sheets.Service, spreadsheetID string, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wb := &Workbook{service: service, spreadsheetID: spreadsheetID, logger: logger}
	if err := wb.refresh(ctx); err != nil {
		return nil, err
	}
	return wb, nil
}

// refresh reloads sheet ids, charts and conditional rules.
func (wb *Workbook) refresh(ctx context.Context) error {
	ss, err := wb.service.Spreadsheets.Get(wb.spreadsheetID).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet %s: %w", wb.spreadsheetID, err)
	}
	wb.sheetIDs = make(map[string]int64, len(ss.Sheets))
	wb.order = wb.order[:0]
	wb.charts = make(map[int64][]*sheets.EmbeddedChart)
	wb.rules = make(map[int64][]*sheets.ConditionalFormatRule)
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		id := s.Properties.SheetId
		wb.sheetIDs[s.Properties.Title] = id
		wb.order = append(wb.order, s.Properties.Title)
		wb.charts[id] = s.Charts
		wb.rules[id] = s.ConditionalFormats
	}
	return nil
}

// Batches returns how many batchUpdate requests Sync has sent.
func (wb *Workbook) Batches() int { return wb.batches }

// Pending returns the staged, unsent requests.
func (wb *Workbook) Pending() []*sheets.Request { return wb.pending }

// SheetNames returns the sheet titles in spreadsheet order.
func (wb *Workbook) SheetNames() ([]string, error) {
	return append([]string(nil), wb.order...), nil
}

func (wb *Workbook) sheetID(name string) (int64, error) {
	id, ok := wb.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", xldash.ErrSheetNotFound, name)
	}
	return id, nil
}

func (wb *Workbook) gridRange(area xldash.AreaRef) (*sheets.GridRange, error) {
	id, err := wb.sheetID(area.First.Sheet)
	if err != nil {
		return nil, err
	}
	return &sheets.GridRange{
		SheetId:          id,
		StartRowIndex:    int64(area.First.Row),
		EndRowIndex:      int64(area.Last.Row + 1),
		StartColumnIndex: int64(area.First.Col),
		EndColumnIndex:   int64(area.Last.Col + 1),
	}, nil
}

func (wb *Workbook) coordinate(ref xldash.CellRef) (*sheets.GridCoordinate, error) {
	id, err := wb.sheetID(ref.Sheet)
	if err != nil {
		return nil, err
	}
	return &sheets.GridCoordinate{SheetId: id, RowIndex: int64(ref.Row), ColumnIndex: int64(ref.Col)}, nil
}

func (wb *Workbook) stage(reqs ...*sheets.Request) {
	wb.pending = append(wb.pending, reqs...)
}

// ClearRange clears values and formats of the area.
func (wb *Workbook) ClearRange(area xldash.AreaRef) error {
	gr, err := wb.gridRange(area)
	if err != nil {
		return err
	}
	wb.stage(&sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range:  gr,
			Cell:   &sheets.CellData{},
			Fields: "userEnteredValue,userEnteredFormat",
		},
	})
	return nil
}

// SetFormula writes a formula; the leading "=" is added here.
func (wb *Workbook) SetFormula(ref xldash.CellRef, formula string) error {
	f := "=" + strings.TrimPrefix(formula, "=")
	return wb.updateCell(ref, &sheets.ExtendedValue{FormulaValue: &f})
}

// SetValue writes a literal string, number or bool. nil clears the value.
func (wb *Workbook) SetValue(ref xldash.CellRef, value any) error {
	ev, err := extendedValue(value)
	if err != nil {
		return fmt.Errorf("set value %s: %w", ref, err)
	}
	return wb.updateCell(ref, ev)
}

func (wb *Workbook) updateCell(ref xldash.CellRef, ev *sheets.ExtendedValue) error {
	start, err := wb.coordinate(ref)
	if err != nil {
		return err
	}
	wb.stage(&sheets.Request{
		UpdateCells: &sheets.UpdateCellsRequest{
			Start:  start,
			Rows:   []*sheets.RowData{{Values: []*sheets.CellData{{UserEnteredValue: ev}}}},
			Fields: "userEnteredValue",
		},
	})
	return nil
}

func extendedValue(value any) (*sheets.ExtendedValue, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &sheets.ExtendedValue{StringValue: &v}, nil
	case bool:
		return &sheets.ExtendedValue{BoolValue: &v}, nil
	case float64:
		return &sheets.ExtendedValue{NumberValue: &v}, nil
	case int:
		f := float64(v)
		return &sheets.ExtendedValue{NumberValue: &f}, nil
	case int64:
		f := float64(v)
		return &sheets.ExtendedValue{NumberValue: &f}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", value)
}

// SetStyle replaces the format of every cell in the area.
func (wb *Workbook) SetStyle(area xldash.AreaRef, style xldash.CellStyle) error {
	gr, err := wb.gridRange(area)
	if err != nil {
		return err
	}
	wb.stage(&sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range:  gr,
			Cell:   &sheets.CellData{UserEnteredFormat: cellFormat(style)},
			Fields: "userEnteredFormat",
		},
	})
	return nil
}

func cellFormat(style xldash.CellStyle) *sheets.CellFormat {
	cf := &sheets.CellFormat{}
	if style.Bold || style.FontColor != "" {
		cf.TextFormat = &sheets.TextFormat{Bold: style.Bold, ForegroundColor: color(style.FontColor)}
	}
	if style.FillColor != "" {
		cf.BackgroundColor = color(style.FillColor)
	}
	if style.NumberFormat != "" {
		cf.NumberFormat = &sheets.NumberFormat{Type: numberFormatType(style.NumberFormat), Pattern: style.NumberFormat}
	}
	return cf
}

// numberFormatType picks the Sheets format type matching a pattern.
func numberFormatType(pattern string) string {
	switch {
	case strings.Contains(pattern, "%"):
		return "PERCENT"
	case strings.ContainsAny(pattern, "$€£¥"):
		return "CURRENCY"
	}
	return "NUMBER"
}

// color converts "RRGGBB" to a Sheets color; invalid input gives nil.
func color(hex string) *sheets.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return nil
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}
	return &sheets.Color{
		Red:   float64(v>>16&0xff) / 255,
		Green: float64(v>>8&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}
}

// AddChart stages deletion of charts on the sheet carrying the same title,
// then a combo chart: margin series as columns on the left axis, revenue
// series as lines on the right axis. Series ranges include the header cell
// so Sheets names each series from it.
func (wb *Workbook) AddChart(sheet string, spec xldash.ChartSpec) error {
	id, err := wb.sheetID(sheet)
	if err != nil {
		return err
	}
	anchor, err := xldash.ParseCellRef(spec.Placement.Cell)
	if err != nil {
		return fmt.Errorf("chart anchor: %w", err)
	}
	anchor.Sheet = sheet

	kept := wb.charts[id][:0:0]
	for _, c := range wb.charts[id] {
		if c.Spec != nil && c.Spec.Title == spec.Title {
			wb.stage(&sheets.Request{DeleteEmbeddedObject: &sheets.DeleteEmbeddedObjectRequest{ObjectId: c.ChartId}})
			continue
		}
		kept = append(kept, c)
	}
	wb.charts[id] = kept

	domain, err := wb.gridRange(withHeader(spec.Categories, spec.Categories.First.Offset(-1, 0)))
	if err != nil {
		return err
	}
	basic := &sheets.BasicChartSpec{
		ChartType:      "COMBO",
		LegendPosition: "BOTTOM_LEGEND",
		HeaderCount:    1,
		Axis: []*sheets.BasicChartAxis{
			{Position: "BOTTOM_AXIS"},
			{Position: "LEFT_AXIS", Title: spec.PrimaryAxisTitle, TitleTextFormat: &sheets.TextFormat{FontSize: int64(spec.AxisTitleSize)}},
			{Position: "RIGHT_AXIS", Title: spec.SecondaryAxisTitle, TitleTextFormat: &sheets.TextFormat{FontSize: int64(spec.AxisTitleSize)}},
		},
		Domains: []*sheets.BasicChartDomain{{Domain: chartData(domain)}},
	}
	for _, s := range spec.Series {
		gr, err := wb.gridRange(withHeader(s.Values, s.Name))
		if err != nil {
			return err
		}
		series := &sheets.BasicChartSeries{Series: chartData(gr), TargetAxis: "LEFT_AXIS", Type: "COLUMN"}
		if s.Role == xldash.RoleRevenue {
			series.TargetAxis, series.Type = "RIGHT_AXIS", "LINE"
		}
		basic.Series = append(basic.Series, series)
	}

	coord, err := wb.coordinate(anchor)
	if err != nil {
		return err
	}
	wb.stage(&sheets.Request{
		AddChart: &sheets.AddChartRequest{
			Chart: &sheets.EmbeddedChart{
				Spec: &sheets.ChartSpec{
					Title:           spec.Title,
					TitleTextFormat: &sheets.TextFormat{FontSize: int64(spec.TitleSize)},
					BasicChart:      basic,
				},
				Position: &sheets.EmbeddedObjectPosition{
					OverlayPosition: &sheets.OverlayPosition{
						AnchorCell:    coord,
						OffsetXPixels: int64(spec.Placement.OffsetX),
						OffsetYPixels: int64(spec.Placement.OffsetY),
						WidthPixels:   int64(spec.Placement.Width),
						HeightPixels:  int64(spec.Placement.Height),
					},
				},
			},
		},
	})
	return nil
}

// withHeader extends values upward to include the header cell when the
// header sits directly above it.
func withHeader(values xldash.AreaRef, header xldash.CellRef) xldash.AreaRef {
	if header.Row == values.First.Row-1 && header.Col == values.First.Col {
		values.First.Row = header.Row
	}
	return values
}

func chartData(gr *sheets.GridRange) *sheets.ChartData {
	return &sheets.ChartData{SourceRange: &sheets.ChartSourceRange{Sources: []*sheets.GridRange{gr}}}
}

// ReplaceConditionalFormats stages deletion of every rule overlapping the
// area, highest index first so earlier indices stay valid, then adds one
// TEXT_EQ rule per entry in order.
func (wb *Workbook) ReplaceConditionalFormats(area xldash.AreaRef, rules []xldash.ConditionalRule) error {
	gr, err := wb.gridRange(area)
	if err != nil {
		return err
	}
	id := gr.SheetId

	existing := append([]*sheets.ConditionalFormatRule(nil), wb.rules[id]...)
	var drop []int
	for i, r := range existing {
		if ruleOverlaps(r, gr) {
			drop = append(drop, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(drop)))
	for _, i := range drop {
		wb.stage(&sheets.Request{
			DeleteConditionalFormatRule: &sheets.DeleteConditionalFormatRuleRequest{SheetId: id, Index: int64(i)},
		})
		existing = append(existing[:i], existing[i+1:]...)
	}

	added := make([]*sheets.ConditionalFormatRule, 0, len(rules))
	for i, rule := range rules {
		r := &sheets.ConditionalFormatRule{
			Ranges: []*sheets.GridRange{gr},
			BooleanRule: &sheets.BooleanRule{
				Condition: &sheets.BooleanCondition{
					Type:   "TEXT_EQ",
					Values: []*sheets.ConditionValue{{UserEnteredValue: rule.Text}},
				},
				Format: cellFormat(rule.Style),
			},
		}
		wb.stage(&sheets.Request{
			AddConditionalFormatRule: &sheets.AddConditionalFormatRuleRequest{Rule: r, Index: int64(i)},
		})
		added = append(added, r)
	}
	wb.rules[id] = append(added, existing...)
	return nil
}

func ruleOverlaps(rule *sheets.ConditionalFormatRule, gr *sheets.GridRange) bool {
	for _, r := range rule.Ranges {
		if r.SheetId != gr.SheetId {
			continue
		}
		if r.StartRowIndex < gr.EndRowIndex && gr.StartRowIndex < r.EndRowIndex &&
			r.StartColumnIndex < gr.EndColumnIndex && gr.StartColumnIndex < r.EndColumnIndex {
			return true
		}
	}
	return false
}

// Sync sends the staged requests as one batchUpdate and reloads metadata.
// Nothing is retried.
func (wb *Workbook) Sync(ctx context.Context) error {
	if len(wb.pending) > 0 {
		batch := &sheets.BatchUpdateSpreadsheetRequest{Requests: wb.pending}
		if _, err := wb.service.Spreadsheets.BatchUpdate(wb.spreadsheetID, batch).Context(ctx).Do(); err != nil {
			return fmt.Errorf("batch update %s: %w", wb.spreadsheetID, err)
		}
		wb.logger.Debug("sent batch update", "spreadsheet_id", wb.spreadsheetID, "requests", len(wb.pending))
		wb.pending = nil
		wb.batches++
	}
	return wb.refresh(ctx)
}

// Calculate returns the unformatted computed value of a cell.
func (wb *Workbook) Calculate(ctx context.Context, ref xldash.CellRef) (string, error) {
	vr, err := wb.service.Spreadsheets.Values.Get(wb.spreadsheetID, ref.String()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calculate %s: %w", ref, err)
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return "", nil
	}
	switch v := vr.Values[0][0].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	default:
		return fmt.Sprint(v), nil
	}
}
