package taskpdf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/podder-ai/taskpdf/pagecache"
	"github.com/podder-ai/taskpdf/pagelayout"
)

// Engine selects the built-in layout extractor.
type Engine string

const (
	// EngineLayout analyzes paragraphs, headings and lists with tabula.
	EngineLayout Engine = "layout"
	// EnginePlainText reports text rows only, using ledongthuc/pdf.
	EnginePlainText Engine = "plaintext"
)

// Config holds the settings of an opened PDF.
type Config struct {
	// Name overrides the document name, which defaults to the input file
	// name without its extension.
	Name string

	// TempDir is the parent of the scratch directory. Empty means the
	// system temporary directory.
	TempDir string

	// Params is forwarded to the extractor. Nil means extractor defaults.
	Params *pagelayout.Params

	Engine Engine

	// Backend and Extractor replace the built-in implementations.
	Backend   pagecache.Backend
	Extractor pagecache.Extractor

	// Logger receives the document's debug and warning events. Nil
	// discards everything.
	Logger *zerolog.Logger

	// Registerer receives the cache metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Engine: EngineLayout,
	}
}

// clone creates a copy of c that does not share Params with it.
func (c Config) clone() Config {
	n := c
	if c.Params != nil {
		p := *c.Params
		n.Params = &p
	}
	return n
}
