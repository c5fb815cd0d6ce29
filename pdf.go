package taskpdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/podder-ai/taskpdf/document"
	"github.com/podder-ai/taskpdf/format"
	"github.com/podder-ai/taskpdf/internal/logger"
	"github.com/podder-ai/taskpdf/pagecache"
	"github.com/podder-ai/taskpdf/pagelayout"
	"github.com/podder-ai/taskpdf/plaintext"
)

// PDF is an opened PDF document working on a private copy of its input.
// A PDF is not safe for concurrent use.
type PDF struct {
	name string
	dir  string
	path string

	cache *pagecache.Cache
	log   *logger.Logger

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

// pagesDir is the subdirectory of the scratch directory receiving page
// files. The working copy never lives there.
const pagesDir = "pages"

// OpenWithConfig copies the PDF at path into a new scratch directory and
// returns a PDF working on the copy. The document itself is parsed on
// first use.
func OpenWithConfig(path string, cfg Config) (*PDF, error) {
	cfg = cfg.clone()

	if !format.IsSupported(path) {
		if _, err := format.CheckPDF(path); err != nil {
			return nil, err
		}
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if cfg.Logger != nil {
		log = logger.FromZerolog(*cfg.Logger)
	}

	name := cfg.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	name = safeName(name)

	dir, err := os.MkdirTemp(cfg.TempDir, name+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	p := &PDF{
		name: name,
		dir:  dir,
		log:  log.With("document", name),
	}
	p.path = filepath.Join(dir, p.FileName())

	if err := p.init(path, extractor, cfg); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	p.log.Debug().Str("source", path).Str("path", p.path).Msg("document opened")
	return p, nil
}

// init fills the scratch directory and creates the page cache.
func (p *PDF) init(src string, extractor pagecache.Extractor, cfg Config) error {
	if err := copyFile(src, p.path); err != nil {
		return err
	}
	pages := filepath.Join(p.dir, pagesDir)
	if err := os.Mkdir(pages, 0755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}

	backend := cfg.Backend
	if backend == nil {
		backend = document.NewBackend()
	}
	cache, err := pagecache.New(p.path, backend, extractor, pagecache.Config{
		Dir:        pages,
		Params:     cfg.Params,
		Logger:     p.log.Zerolog(),
		Registerer: cfg.Registerer,
	})
	if err != nil {
		return err
	}
	p.cache = cache
	return nil
}

func newExtractor(cfg Config) (pagecache.Extractor, error) {
	if cfg.Extractor != nil {
		return cfg.Extractor, nil
	}
	switch cfg.Engine {
	case EngineLayout, "":
		return pagelayout.NewAnalyzer(cfg.Logger), nil
	case EnginePlainText:
		return plaintext.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

// safeName replaces characters that cannot appear in a file name or a
// MkdirTemp pattern.
func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*':
			return '_'
		}
		return r
	}, name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// Type returns the document type, "pdf".
func (p *PDF) Type() string {
	return format.Type
}

// Name returns the document name.
func (p *PDF) Name() string {
	return p.name
}

// FileName returns the name with the default extension added when it has
// none.
func (p *PDF) FileName() string {
	if filepath.Ext(p.name) == "" {
		return p.name + format.DefaultExtension
	}
	return p.name
}

// Path returns the path of the working copy.
func (p *PDF) Path() string {
	return p.path
}

// Dir returns the scratch directory. It holds the working copy and, in a
// "pages" subdirectory, every derived page file.
func (p *PDF) Dir() string {
	return p.dir
}

func (p *PDF) String() string {
	return fmt.Sprintf("<PDF: %s>", p.path)
}

// Save copies the working copy to path.
func (p *PDF) Save(path string) error {
	if p.closed {
		return ErrClosed
	}
	return copyFile(p.path, path)
}

// Close removes the scratch directory with the working copy and all page
// files. It is safe to call Close multiple times.
func (p *PDF) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.closeErr = os.RemoveAll(p.dir)
		p.log.Debug().Str("dir", p.dir).Err(p.closeErr).Msg("document closed")
	})
	return p.closeErr
}

// Document returns the parsed document, parsing it on first use.
func (p *PDF) Document() (pagecache.Document, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return p.cache.Document()
}

// PageCount returns the number of pages.
func (p *PDF) PageCount() (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	return p.cache.PageCount()
}

// SaveSinglePage returns the path of a file holding only the page at
// index. For a one page document this is the working copy itself.
func (p *PDF) SaveSinglePage(index int) (string, error) {
	if p.closed {
		return "", ErrClosed
	}
	return p.cache.SinglePage(index)
}

// SaveMultiplePages returns the path of a file holding the pages at
// indices in the given order, repeats included. An empty selection
// returns "".
func (p *PDF) SaveMultiplePages(indices []int) (string, error) {
	if p.closed {
		return "", ErrClosed
	}
	return p.cache.MultiplePages(indices)
}

// SavePages copies a file holding the pages at indices, in order, to
// path. The page file stays cached.
func (p *PDF) SavePages(indices []int, path string) error {
	if p.closed {
		return ErrClosed
	}
	if len(indices) == 0 {
		return fmt.Errorf("no pages selected")
	}
	src, err := p.cache.MultiplePages(indices)
	if err != nil {
		return err
	}
	return copyFile(src, path)
}

// PageLayout returns the layout of the page at index.
func (p *PDF) PageLayout(index int) (*pagelayout.Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return p.cache.Layout(index)
}

// PageLayouts returns the layouts of the pages at indices keyed by index.
// Uncached pages are extracted together in one pass.
func (p *PDF) PageLayouts(indices []int) (map[int]*pagelayout.Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return p.cache.Layouts(indices)
}

// AllPageLayouts returns the layout of every page keyed by index.
func (p *PDF) AllPageLayouts() (map[int]*pagelayout.Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return p.cache.AllLayouts()
}

// LayoutParams returns the parameters passed to the extractor.
func (p *PDF) LayoutParams() *pagelayout.Params {
	return p.cache.Params()
}

// SetLayoutParams changes the parameters for later extractions. Layouts
// already computed are kept.
func (p *PDF) SetLayoutParams(params *pagelayout.Params) {
	p.cache.SetParams(params)
}
