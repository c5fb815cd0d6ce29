// Package taskpdf opens PDF files for page level processing and caches
// the files and layouts it derives from them.
//
// Basic usage:
//
//	doc, err := taskpdf.Open("report.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//
//	path, err := doc.SaveMultiplePages([]int{2, 0})
//	page, err := doc.PageLayout(1)
//
// Open copies the input into a scratch directory that Close removes. Page
// indices are zero-based. Every page file and layout is computed at most
// once per document; layouts are returned as copies the caller may
// modify.
//
// With options:
//
//	cfg := taskpdf.DefaultConfig()
//	cfg.Engine = taskpdf.EnginePlainText
//	cfg.Params = params
//	doc, err := taskpdf.OpenWithConfig("report.pdf", cfg)
//
// The lower-level packages pagecache, document and pagelayout can be used
// directly to combine other backends and extractors.
package taskpdf

// Open opens the PDF at path with DefaultConfig.
//
// Example:
//
//	n := taskpdf.Must(taskpdf.Must(taskpdf.Open("document.pdf")).PageCount())
func Open(path string) (*PDF, error) {
	return OpenWithConfig(path, DefaultConfig())
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
