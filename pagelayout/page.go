package pagelayout

// BBox is an axis aligned bounding box in PDF user space.
// Y is the bottom edge (PDF coordinate system).
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Line is a single detected text line.
type Line struct {
	Text      string  `json:"text"`
	BBox      BBox    `json:"bbox"`
	Baseline  float64 `json:"baseline"`
	FontSize  float64 `json:"font_size"`
	Alignment string  `json:"alignment,omitempty"`
}

// ListItem is one entry of a detected list.
type ListItem struct {
	Text   string `json:"text"`
	Prefix string `json:"prefix,omitempty"`
	Level  int    `json:"level"`
}

// Element types reported in Element.Type.
const (
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeList      = "list"
	TypeUnknown   = "unknown"
)

// Element is a layout element such as a paragraph, heading or list,
// in reading order.
type Element struct {
	Type string `json:"type"`
	BBox BBox   `json:"bbox"`
	Text string `json:"text"`

	// Level is the heading level (1-6), zero for other element types
	Level int `json:"level,omitempty"`

	// Items holds list entries when Type is TypeList
	Items []ListItem `json:"items,omitempty"`

	Lines []Line `json:"lines,omitempty"`
}

// Stats counts what the analysis detected on a page.
type Stats struct {
	Fragments  int `json:"fragments"`
	Lines      int `json:"lines"`
	Blocks     int `json:"blocks"`
	Paragraphs int `json:"paragraphs"`
	Headings   int `json:"headings"`
	Lists      int `json:"lists"`
	Columns    int `json:"columns"`
}

// Page is the layout analysis of one PDF page.
//
// Index is the zero-based position of the page inside the file it was
// analyzed from, which is not necessarily its position in the original
// document.
type Page struct {
	Index    int       `json:"index"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Rotation int       `json:"rotation,omitempty"`
	Text     string    `json:"text"`
	Elements []Element `json:"elements"`
	Lines    []Line    `json:"lines"`
	Stats    Stats     `json:"stats"`

	// OCR is true when the text was recognized from page images.
	OCR bool `json:"ocr,omitempty"`
}

// Clone returns a deep copy of p. Clone of a nil page is nil.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	c := *p
	c.Lines = cloneLines(p.Lines)
	if p.Elements != nil {
		c.Elements = make([]Element, len(p.Elements))
		for i, e := range p.Elements {
			c.Elements[i] = e.clone()
		}
	}
	return &c
}

func (e Element) clone() Element {
	c := e
	c.Lines = cloneLines(e.Lines)
	if e.Items != nil {
		c.Items = make([]ListItem, len(e.Items))
		copy(c.Items, e.Items)
	}
	return c
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	c := make([]Line, len(lines))
	copy(c, lines)
	return c
}

// Headings returns the heading elements of the page.
func (p *Page) Headings() []Element {
	return p.elementsOfType(TypeHeading)
}

// Paragraphs returns the paragraph elements of the page.
func (p *Page) Paragraphs() []Element {
	return p.elementsOfType(TypeParagraph)
}

func (p *Page) elementsOfType(typ string) []Element {
	var out []Element
	for _, e := range p.Elements {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// IsEmpty reports whether no text was found on the page.
func (p *Page) IsEmpty() bool {
	return len(p.Elements) == 0 && len(p.Lines) == 0 && p.Text == ""
}

// ClonePages deep copies every page of a map.
func ClonePages(pages map[int]*Page) map[int]*Page {
	out := make(map[int]*Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}
