package pagecache

import "errors"

var (
	// ErrInvalidIndex is reported by a Document when a page index is out
	// of range. The cache does not validate indices itself.
	ErrInvalidIndex = errors.New("page index out of range")

	// ErrDocumentOpen wraps failures of Backend.Open.
	ErrDocumentOpen = errors.New("failed to open document")

	// ErrExtraction wraps layout extractor failures.
	ErrExtraction = errors.New("layout extraction failed")
)
