package pagelayout

import (
	"fmt"
	"os"

	"github.com/tsawler/tabula/layout"
	"gopkg.in/yaml.v2"

	"github.com/podder-ai/taskpdf/ocr"
)

// Params controls layout analysis. It is handed to the extractor on every
// call without interpretation by the page cache.
type Params struct {
	// Analyzer holds the detector thresholds (line grouping tolerance,
	// paragraph spacing, heading font ratios, column gaps, ...).
	Analyzer layout.AnalyzerConfig `yaml:"analyzer"`

	// NormalizeText applies Unicode NFC normalization to extracted text.
	NormalizeText bool `yaml:"normalize_text"`

	// OCR configures recognition of image-only pages.
	OCR OCRParams `yaml:"ocr"`
}

// OCRParams configures the OCR fallback used for pages without text.
type OCRParams struct {
	Enabled bool `yaml:"enabled"`

	// Language is passed to Tesseract, e.g. "eng" or "eng+jpn".
	Language string `yaml:"language"`

	// MinWidth upscales narrower images to this width before recognition.
	MinWidth int `yaml:"min_width"`

	// PageSegMode overrides Tesseract's page segmentation, e.g.
	// ocr.PSMSingleBlock for a scanned text column. Zero keeps the engine
	// default.
	PageSegMode ocr.PageSegMode `yaml:"page_seg_mode"`
}

// DefaultParams returns analysis parameters with tabula's default detector
// configuration and OCR disabled.
func DefaultParams() *Params {
	return &Params{
		Analyzer:      layout.DefaultAnalyzerConfig(),
		NormalizeText: true,
		OCR: OCRParams{
			Language: "eng",
			MinWidth: 1000,
		},
	}
}

// LoadParams reads parameters from a YAML file. Keys missing from the file
// keep their DefaultParams value.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout params: %w", err)
	}
	return ParseParams(data)
}

// ParseParams decodes YAML encoded parameters on top of DefaultParams.
func ParseParams(data []byte) (*Params, error) {
	params := DefaultParams()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse layout params: %w", err)
	}
	return params, nil
}

func (p *Params) orDefault() *Params {
	if p == nil {
		return DefaultParams()
	}
	return p
}
