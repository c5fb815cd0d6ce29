// Package plaintext is a lightweight page extractor built on
// ledongthuc/pdf. It reports text rows as lines and the page text as a
// single paragraph, with no heading or list detection.
package plaintext

import (
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/podder-ai/taskpdf/pagelayout"
)

// Extractor implements the page cache extractor interface.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads every page of the PDF at path. Only NormalizeText is
// taken from params.
func (e *Extractor) Extract(path string, params *pagelayout.Params) ([]*pagelayout.Page, error) {
	normalize := params == nil || params.NormalizeText

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	count := r.NumPage()
	pages := make([]*pagelayout.Page, 0, count)
	for i := 0; i < count; i++ {
		page, err := extractPage(r.Page(i+1), i, normalize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func extractPage(p pdf.Page, index int, normalize bool) (*pagelayout.Page, error) {
	page := &pagelayout.Page{Index: index, Elements: []pagelayout.Element{}}
	if p.V.IsNull() {
		return page, nil
	}
	page.Width, page.Height = mediaBox(p)

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, row := range rows {
		line, ok := fromRow(row, normalize)
		if !ok {
			continue
		}
		page.Lines = append(page.Lines, line)
		texts = append(texts, line.Text)
	}

	page.Text = strings.Join(texts, "\n")
	page.Stats.Lines = len(page.Lines)
	for _, row := range rows {
		page.Stats.Fragments += len(row.Content)
	}
	if page.Text != "" {
		page.Elements = append(page.Elements, pagelayout.Element{
			Type:  pagelayout.TypeParagraph,
			BBox:  union(page.Lines),
			Text:  page.Text,
			Lines: append([]pagelayout.Line(nil), page.Lines...),
		})
		page.Stats.Paragraphs = 1
		page.Stats.Blocks = 1
	}
	return page, nil
}

func fromRow(row *pdf.Row, normalize bool) (pagelayout.Line, bool) {
	var sb strings.Builder
	minX, maxX := math.Inf(1), math.Inf(-1)
	var fontSize float64
	for _, t := range row.Content {
		sb.WriteString(t.S)
		minX = math.Min(minX, t.X)
		maxX = math.Max(maxX, t.X+t.W)
		fontSize += t.FontSize
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return pagelayout.Line{}, false
	}
	if normalize {
		text = norm.NFC.String(text)
	}

	fontSize /= float64(len(row.Content))
	y := float64(row.Position)
	return pagelayout.Line{
		Text:     text,
		BBox:     pagelayout.BBox{X: minX, Y: y, Width: maxX - minX, Height: fontSize},
		Baseline: y,
		FontSize: fontSize,
	}, true
}

func mediaBox(p pdf.Page) (width, height float64) {
	box := p.V.Key("MediaBox")
	if box.Len() != 4 {
		return 0, 0
	}
	return box.Index(2).Float64() - box.Index(0).Float64(),
		box.Index(3).Float64() - box.Index(1).Float64()
}

func union(lines []pagelayout.Line) pagelayout.BBox {
	if len(lines) == 0 {
		return pagelayout.BBox{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, l := range lines {
		minX = math.Min(minX, l.BBox.X)
		minY = math.Min(minY, l.BBox.Y)
		maxX = math.Max(maxX, l.BBox.X+l.BBox.Width)
		maxY = math.Max(maxY, l.BBox.Y+l.BBox.Height)
	}
	return pagelayout.BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
