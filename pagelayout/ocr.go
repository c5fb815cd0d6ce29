package pagelayout

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"

	"github.com/tsawler/tabula/reader"
	"golang.org/x/image/draw"

	"github.com/podder-ai/taskpdf/internal/logger"
	"github.com/podder-ai/taskpdf/ocr"
)

// ocrSession owns the recognizer of one extraction. The recognizer is
// created on the first page that needs it.
type ocrSession struct {
	params OCRParams
	create func(params OCRParams) (Recognizer, error)
	log    *logger.Logger

	rec         Recognizer
	unavailable bool
}

func (s *ocrSession) enabled() bool {
	return s.params.Enabled && s.create != nil && !s.unavailable
}

func (s *ocrSession) recognizer() Recognizer {
	if s.rec != nil || s.unavailable {
		return s.rec
	}
	rec, err := s.create(s.params)
	if err != nil {
		s.unavailable = true
		if errors.Is(err, ocr.ErrOCRNotEnabled) {
			s.log.Warn().Msg("OCR requested but this binary was built without the ocr tag")
		} else {
			s.log.Warn().Err(err).Msg("failed to start OCR engine")
		}
		return nil
	}
	s.rec = rec
	return rec
}

// recognize returns the text of all images of a page, one image per
// paragraph. Images that fail to convert or recognize are skipped.
func (s *ocrSession) recognize(pageIndex int, images []reader.PageImage) string {
	if len(images) == 0 {
		return ""
	}
	rec := s.recognizer()
	if rec == nil {
		return ""
	}

	var parts []string
	for i := range images {
		img := &images[i]
		data, err := img.ToPNG()
		if err == nil {
			data, err = upscale(data, s.params.MinWidth)
		}
		if err != nil {
			s.log.Warn().Int("page", pageIndex).Str("image", img.Name).Err(err).Msg("failed to convert image")
			continue
		}

		text, err := rec.RecognizeImage(data)
		if err != nil {
			s.log.Warn().Int("page", pageIndex).Str("image", img.Name).Err(err).Msg("OCR failed")
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (s *ocrSession) close() {
	if s.rec != nil {
		s.rec.Close()
		s.rec = nil
	}
}

// upscale enlarges PNG data narrower than minWidth, keeping the aspect
// ratio.
func upscale(data []byte, minWidth int) ([]byte, error) {
	if minWidth <= 0 {
		return data, nil
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dx() >= minWidth {
		return data, nil
	}

	height := b.Dy() * minWidth / b.Dx()
	if height == 0 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, minWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// applyOCR replaces the content of an empty page with recognized text.
func applyOCR(page *Page, text string) {
	page.OCR = true
	page.Text = text
	page.Lines = nil
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			page.Lines = append(page.Lines, Line{Text: line})
		}
	}

	bbox := BBox{Width: page.Width, Height: page.Height}
	page.Elements = page.Elements[:0]
	for _, para := range strings.Split(text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			page.Elements = append(page.Elements, Element{Type: TypeParagraph, BBox: bbox, Text: para})
		}
	}
	page.Stats.Lines = len(page.Lines)
	page.Stats.Paragraphs = len(page.Elements)
}
