// Package pagelayout describes the layout of PDF pages and extracts it.
//
// A Page holds the text, the detected elements (paragraphs, headings,
// lists) and the text lines of one page. Pages returned by the page cache
// are deep copies; see Page.Clone.
//
// Analyzer is the default extractor. It reads a PDF with tabula, groups
// the text fragments of every page with tabula's layout analyzer and, when
// enabled in Params, recognizes image-only pages with Tesseract:
//
//	a := pagelayout.NewAnalyzer(nil)
//	pages, err := a.Extract("pages.pdf", pagelayout.DefaultParams())
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, p := range pages {
//		fmt.Println(p.Index, len(p.Headings()))
//	}
//
// Params can be stored as YAML and read with LoadParams.
package pagelayout
