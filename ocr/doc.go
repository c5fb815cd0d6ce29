// Package ocr recognizes text in page images for PDFs that carry no text
// layer (scanned documents).
//
// The real implementation wraps Tesseract through gosseract and is only
// compiled with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Without the tag every constructor returns [ErrOCRNotEnabled], so callers
// can treat OCR as an optional capability. Tesseract and its language data
// must be installed on the host (apt-get install tesseract-ocr).
package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegMode selects how Tesseract segments an image.
type PageSegMode int

// Page segmentation modes, numerically equal to Tesseract's.
const (
	PSMAuto         PageSegMode = 3  // Fully automatic (default)
	PSMSingleColumn PageSegMode = 4  // Single column of variable sizes
	PSMSingleBlock  PageSegMode = 6  // Single uniform block of text
	PSMSingleLine   PageSegMode = 7  // Single text line
	PSMSparseText   PageSegMode = 11 // Find as much text as possible
)
