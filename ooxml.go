package xldash

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// The chart reader walks the package the way a spreadsheet application
// does: workbook.xml names the sheets, the workbook rels map sheets to
// parts, the sheet rels point at a drawing, and the drawing anchors
// reference chart parts.

const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

type xmlWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xmlRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xmlDrawing struct {
	Anchors []xmlAnchor `xml:"twoCellAnchor"`
	OneCell []xmlAnchor `xml:"oneCellAnchor"`
}

type xmlAnchor struct {
	From struct {
		Col int `xml:"col"`
		Row int `xml:"row"`
	} `xml:"from"`
	Chart struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"graphicFrame>graphic>graphicData>chart"`
}

type xmlRichText struct {
	Runs  []string `xml:"tx>rich>p>r>t"`
	Fonts []struct {
		B  string `xml:"b,attr"`
		Sz string `xml:"sz,attr"`
	} `xml:"tx>rich>p>r>rPr"`
}

// font returns the bold flag and point size of the first run.
func (t *xmlRichText) font() (bold bool, size float64) {
	if t == nil || len(t.Fonts) == 0 {
		return false, 0
	}
	rpr := t.Fonts[0]
	if sz, err := strconv.ParseFloat(rpr.Sz, 64); err == nil {
		size = sz / 100 // hundredths of a point
	}
	return rpr.B == "1" || rpr.B == "true", size
}

func (t *xmlRichText) text() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Runs, "")
}

type xmlChartGroup struct {
	Series []struct {
		Name string `xml:"tx>strRef>f"`
	} `xml:"ser"`
	AxIDs []struct {
		Val string `xml:"val,attr"`
	} `xml:"axId"`
}

type xmlChartSpace struct {
	Chart struct {
		Title    *xmlRichText `xml:"title"`
		PlotArea struct {
			Bar   []xmlChartGroup `xml:"barChart"`
			Line  []xmlChartGroup `xml:"lineChart"`
			ValAx []struct {
				Title *xmlRichText `xml:"title"`
			} `xml:"valAx"`
		} `xml:"plotArea"`
	} `xml:"chart"`
}

// ChartGroup is one plot of a chart: its type and series name references.
type ChartGroup struct {
	Type   string   `yaml:"type" json:"type"` // "bar" or "line"
	Series []string `yaml:"series" json:"series"`
	Axis   string   `yaml:"axis" json:"axis"` // value axis id
}

// ChartInfo describes a chart found on a sheet.
type ChartInfo struct {
	Anchor     string       `yaml:"anchor" json:"anchor"`
	Title      string       `yaml:"title" json:"title"`
	TitleSize  float64      `yaml:"title_size,omitempty" json:"title_size,omitempty"`
	TitleBold  bool         `yaml:"title_bold,omitempty" json:"title_bold,omitempty"`
	Groups     []ChartGroup `yaml:"groups" json:"groups"`
	AxisTitles []string     `yaml:"axis_titles,omitempty" json:"axis_titles,omitempty"`
}

// SecondaryAxis reports whether the chart plots groups against more than
// one value axis.
func (c ChartInfo) SecondaryAxis() bool {
	axes := make(map[string]bool)
	for _, g := range c.Groups {
		axes[g.Axis] = true
	}
	return len(axes) > 1
}

// ReadCharts returns the charts anchored on the named sheet of an xlsx file.
func ReadCharts(xlsxPath, sheet string) ([]ChartInfo, error) {
	r, err := zip.OpenReader(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("open package %q: %w", xlsxPath, err)
	}
	defer r.Close()

	pkg := zipPackage{r: &r.Reader}
	sheetPart, err := pkg.sheetPart(sheet)
	if err != nil {
		return nil, err
	}
	drawingPart, err := pkg.relTarget(sheetPart, "/drawing")
	if err != nil || drawingPart == "" {
		return nil, err
	}

	var drawing xmlDrawing
	if err := pkg.decode(drawingPart, &drawing); err != nil {
		return nil, err
	}
	rels, err := pkg.rels(drawingPart)
	if err != nil {
		return nil, err
	}

	var charts []ChartInfo
	for _, anchor := range append(drawing.Anchors, drawing.OneCell...) {
		target, ok := rels[anchor.Chart.RID]
		if anchor.Chart.RID == "" || !ok {
			continue
		}
		var space xmlChartSpace
		if err := pkg.decode(target, &space); err != nil {
			return nil, err
		}
		charts = append(charts, chartInfo(NewCellRef("", anchor.From.Row, anchor.From.Col).CellName(), space))
	}
	return charts, nil
}

func chartInfo(anchor string, space xmlChartSpace) ChartInfo {
	info := ChartInfo{Anchor: anchor, Title: space.Chart.Title.text()}
	info.TitleBold, info.TitleSize = space.Chart.Title.font()
	add := func(kind string, groups []xmlChartGroup) {
		for _, g := range groups {
			cg := ChartGroup{Type: kind}
			for _, s := range g.Series {
				cg.Series = append(cg.Series, s.Name)
			}
			if len(g.AxIDs) > 1 {
				cg.Axis = g.AxIDs[1].Val
			}
			info.Groups = append(info.Groups, cg)
		}
	}
	add("bar", space.Chart.PlotArea.Bar)
	add("line", space.Chart.PlotArea.Line)
	for _, ax := range space.Chart.PlotArea.ValAx {
		if t := ax.Title.text(); t != "" {
			info.AxisTitles = append(info.AxisTitles, t)
		}
	}
	return info
}

type zipPackage struct {
	r *zip.Reader
}

func (p zipPackage) decode(name string, v any) error {
	f, err := p.r.Open(name)
	if err != nil {
		return fmt.Errorf("open part %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read part %s: %w", name, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse part %s: %w", name, err)
	}
	return nil
}

// rels returns the relationship id → resolved part name map of a part.
// A part without a rels file has no relationships.
func (p zipPackage) rels(part string) (map[string]string, error) {
	dir, file := path.Split(part)
	relsPart := path.Join(dir, "_rels", file+".rels")
	if _, err := p.r.Open(relsPart); err != nil {
		return map[string]string{}, nil
	}
	var rels xmlRelationships
	if err := p.decode(relsPart, &rels); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		out[rel.ID] = resolvePart(dir, rel.Target)
	}
	return out, nil
}

// relTarget returns the first relationship of a part whose type ends with
// typeSuffix, or "" when there is none.
func (p zipPackage) relTarget(part, typeSuffix string) (string, error) {
	dir, file := path.Split(part)
	relsPart := path.Join(dir, "_rels", file+".rels")
	if _, err := p.r.Open(relsPart); err != nil {
		return "", nil
	}
	var rels xmlRelationships
	if err := p.decode(relsPart, &rels); err != nil {
		return "", err
	}
	for _, rel := range rels.Relationships {
		if strings.HasPrefix(rel.Type, relNS) && strings.HasSuffix(rel.Type, typeSuffix) {
			return resolvePart(dir, rel.Target), nil
		}
	}
	return "", nil
}

func (p zipPackage) sheetPart(sheet string) (string, error) {
	var wb xmlWorkbook
	if err := p.decode("xl/workbook.xml", &wb); err != nil {
		return "", err
	}
	rels, err := p.rels("xl/workbook.xml")
	if err != nil {
		return "", err
	}
	for _, s := range wb.Sheets {
		if s.Name == sheet {
			if part, ok := rels[s.RID]; ok {
				return part, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
}

// resolvePart resolves a relationship target against the source part's
// directory. Absolute targets are package-rooted.
func resolvePart(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(dir, target)
}
