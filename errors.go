package taskpdf

import (
	"errors"

	"github.com/podder-ai/taskpdf/format"
	"github.com/podder-ai/taskpdf/pagecache"
)

var (
	ErrInvalidIndex = pagecache.ErrInvalidIndex
	ErrDocumentOpen = pagecache.ErrDocumentOpen
	ErrExtraction   = pagecache.ErrExtraction
	ErrNotPDF       = format.ErrNotPDF

	// ErrClosed is returned by operations on a closed PDF.
	ErrClosed = errors.New("pdf is closed")

	// ErrUnknownEngine is returned by OpenWithConfig for an unsupported
	// Config.Engine.
	ErrUnknownEngine = errors.New("unknown layout engine")
)
