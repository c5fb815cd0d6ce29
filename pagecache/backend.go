package pagecache

import "github.com/podder-ai/taskpdf/pagelayout"

// Backend opens documents.
type Backend interface {
	Open(path string) (Document, error)
}

// Document is an opened PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Subset returns a new document made of the given pages in the given
	// order. Indices are zero-based and may repeat. An out of range index
	// yields an error wrapping ErrInvalidIndex.
	Subset(indices []int) (Document, error)

	// Write saves the document to path.
	Write(path string) error
}

// Extractor analyzes the layout of every page of a PDF file.
//
// Extract returns one page per page of the file, in file order. params are
// passed through unchanged from the cache and may be nil.
type Extractor interface {
	Extract(path string, params *pagelayout.Params) ([]*pagelayout.Page, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string, params *pagelayout.Params) ([]*pagelayout.Page, error)

// Extract calls f(path, params).
func (f ExtractorFunc) Extract(path string, params *pagelayout.Params) ([]*pagelayout.Page, error) {
	return f(path, params)
}
