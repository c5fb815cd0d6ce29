package pagelayout

import (
	"strings"

	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/model"
	"golang.org/x/text/unicode/norm"
)

// fromAnalysis converts a tabula analysis result into a Page.
func fromAnalysis(index int, result *layout.AnalysisResult, normalize bool) *Page {
	p := &Page{
		Index:    index,
		Width:    result.PageWidth,
		Height:   result.PageHeight,
		Elements: make([]Element, 0, len(result.Elements)),
		Stats: Stats{
			Fragments:  result.Stats.FragmentCount,
			Lines:      result.Stats.LineCount,
			Blocks:     result.Stats.BlockCount,
			Paragraphs: result.Stats.ParagraphCount,
			Headings:   result.Stats.HeadingCount,
			Lists:      result.Stats.ListCount,
			Columns:    result.Stats.ColumnCount,
		},
	}

	for _, le := range result.Elements {
		p.Elements = append(p.Elements, fromElement(le, normalize))
	}
	if result.Lines != nil {
		p.Lines = fromLines(result.Lines.Lines, normalize)
	}
	p.Text = normalizeText(strings.TrimSpace(result.GetText()), normalize)
	if p.Text == "" && len(p.Lines) > 0 {
		p.Text = joinLines(p.Lines)
	}

	return p
}

func fromElement(le layout.LayoutElement, normalize bool) Element {
	e := Element{
		Type:  elementType(le.Type),
		BBox:  fromBBox(le.BBox),
		Text:  normalizeText(le.Text, normalize),
		Lines: fromLines(le.Lines, normalize),
	}
	if le.Heading != nil {
		e.Level = int(le.Heading.Level)
	}
	if le.List != nil {
		e.Items = make([]ListItem, 0, len(le.List.Items))
		for _, item := range le.List.Items {
			e.Items = append(e.Items, ListItem{
				Text:   normalizeText(item.Text, normalize),
				Prefix: item.Prefix,
				Level:  item.Level,
			})
		}
	}
	return e
}

func fromLines(lines []layout.Line, normalize bool) []Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			Text:      normalizeText(l.Text, normalize),
			BBox:      fromBBox(l.BBox),
			Baseline:  l.Baseline,
			FontSize:  l.AverageFontSize,
			Alignment: l.Alignment.String(),
		}
	}
	return out
}

func fromBBox(b model.BBox) BBox {
	return BBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func elementType(t model.ElementType) string {
	switch t {
	case model.ElementTypeParagraph:
		return TypeParagraph
	case model.ElementTypeHeading:
		return TypeHeading
	case model.ElementTypeList:
		return TypeList
	default:
		return TypeUnknown
	}
}

func normalizeText(s string, normalize bool) string {
	if !normalize || norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

func joinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Text != "" {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, "\n")
}
