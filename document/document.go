package document

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/podder-ai/taskpdf/pagecache"
)

func init() {
	// keep pdfcpu from creating a configuration directory under $HOME
	api.DisableConfigDir()
}

// Backend opens PDF files with pdfcpu.
type Backend struct {
	// Strict enables pdfcpu's strict validation. Relaxed validation
	// accepts many slightly malformed files.
	Strict bool
}

// NewBackend returns a Backend with relaxed validation.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if b.Strict {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

// Open reads and validates the PDF at path.
func (b *Backend) Open(path string) (pagecache.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := b.Read(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Read validates PDF data held in memory.
func (b *Backend) Read(data []byte) (*Document, error) {
	return read(data, b.configuration())
}

func read(data []byte, conf *model.Configuration) (*Document, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return &Document{
		data:      data,
		pageCount: ctx.PageCount,
		conf:      conf,
	}, nil
}

// Document is a validated PDF held in memory.
type Document struct {
	data      []byte
	pageCount int
	conf      *model.Configuration
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Subset returns a document made of the pages at indices, in order. The
// collected pages are read back and validated like any opened document.
func (d *Document) Subset(indices []int) (pagecache.Document, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("empty page selection")
	}

	selection := make([]string, len(indices))
	for i, index := range indices {
		if index < 0 || index >= d.pageCount {
			return nil, fmt.Errorf("page %d of %d: %w", index, d.pageCount, pagecache.ErrInvalidIndex)
		}
		// pdfcpu numbers pages from 1
		selection[i] = strconv.Itoa(index + 1)
	}

	var buf bytes.Buffer
	if err := api.Collect(bytes.NewReader(d.data), &buf, selection, d.conf); err != nil {
		return nil, fmt.Errorf("failed to collect pages: %w", err)
	}

	sub, err := read(buf.Bytes(), d.conf)
	if err != nil {
		return nil, fmt.Errorf("collected pages: %w", err)
	}
	if sub.pageCount != len(indices) {
		return nil, fmt.Errorf("collected %d pages, expected %d", sub.pageCount, len(indices))
	}
	return sub, nil
}

// Write saves the document to path.
func (d *Document) Write(path string) error {
	if err := os.WriteFile(path, d.data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var _ pagecache.Backend = (*Backend)(nil)
var _ pagecache.Document = (*Document)(nil)
