package pagelayout

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/reader"

	"github.com/podder-ai/taskpdf/internal/logger"
	"github.com/podder-ai/taskpdf/ocr"
)

// Recognizer turns an encoded image into text.
type Recognizer interface {
	RecognizeImage(data []byte) (string, error)
	Close() error
}

// Analyzer extracts page layouts with tabula.
type Analyzer struct {
	// NewRecognizer creates the OCR engine for one extraction. It is only
	// called when a page without text is found and OCR is enabled.
	NewRecognizer func(params OCRParams) (Recognizer, error)

	log *logger.Logger
}

// NewAnalyzer returns an Analyzer using Tesseract for OCR.
// A nil logger discards output.
func NewAnalyzer(log *zerolog.Logger) *Analyzer {
	l := logger.Nop()
	if log != nil {
		l = logger.FromZerolog(*log)
	}
	return &Analyzer{
		NewRecognizer: newTesseract,
		log:           l.Component("pagelayout"),
	}
}

func newTesseract(params OCRParams) (Recognizer, error) {
	client, err := ocr.NewWithLanguage(params.Language)
	if err != nil {
		return nil, err
	}
	if params.PageSegMode != 0 {
		if err := client.SetPageSegMode(params.PageSegMode); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode %d: %w", params.PageSegMode, err)
		}
	}
	return client, nil
}

// Extract analyzes every page of the PDF at path and returns the pages in
// file order. A nil params uses DefaultParams.
func (a *Analyzer) Extract(path string, params *Params) ([]*Page, error) {
	params = params.orDefault()
	start := time.Now()

	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	analyzer := layout.NewAnalyzerWithConfig(params.Analyzer)
	session := &ocrSession{params: params.OCR, create: a.NewRecognizer, log: a.log}
	defer session.close()

	result := make([]*Page, 0, count)
	for i := 0; i < count; i++ {
		pdfPage, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		width, _ := pdfPage.Width()
		height, _ := pdfPage.Height()

		fragments, err := r.ExtractTextFragments(pdfPage)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		page := fromAnalysis(i, analyzer.Analyze(fragments, width, height), params.NormalizeText)
		page.Width, page.Height = width, height
		page.Rotation = pdfPage.Rotate()

		if len(fragments) == 0 && session.enabled() {
			images, err := r.ExtractPageImages(pdfPage)
			if err != nil {
				a.log.Warn().Int("page", i).Err(err).Msg("failed to extract page images")
			} else if text := session.recognize(i, images); text != "" {
				applyOCR(page, normalizeText(text, params.NormalizeText))
			}
		}

		result = append(result, page)
	}

	a.log.Debug().
		Str("path", path).
		Int("pages", len(result)).
		Dur("duration_ms", time.Since(start)).
		Msg("layout analyzed")
	return result, nil
}
