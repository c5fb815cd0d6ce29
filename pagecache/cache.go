package pagecache

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/podder-ai/taskpdf/internal/logger"
	"github.com/podder-ai/taskpdf/internal/metrics"
	"github.com/podder-ai/taskpdf/pagelayout"
)

// Config holds the optional settings of a Cache.
type Config struct {
	// Dir receives materialized page files. Defaults to the directory of
	// the source document.
	Dir string

	// Params is forwarded to the extractor on every call.
	Params *pagelayout.Params

	// Logger receives the cache's debug events. Nil discards them.
	Logger *zerolog.Logger

	// Registerer receives the cache metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// Cache materializes pages of one document and caches page files and
// layout objects by page index.
type Cache struct {
	path      string
	dir       string
	backend   Backend
	extractor Extractor
	params    *pagelayout.Params

	// doc is opened on first use
	doc       Document
	pageCount int

	singlePages map[int]string
	multiPages  map[string]string
	layouts     map[int]*pagelayout.Page

	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a cache over the PDF at path. Nothing is read until an
// operation needs the document. It fails only when the metrics cannot be
// registered.
func New(path string, backend Backend, extractor Extractor, cfg Config) (*Cache, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	log := logger.Nop()
	if cfg.Logger != nil {
		log = logger.FromZerolog(*cfg.Logger)
	}
	m, err := metrics.New(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	return &Cache{
		path:        path,
		dir:         dir,
		backend:     backend,
		extractor:   extractor,
		params:      cfg.Params,
		pageCount:   -1,
		singlePages: make(map[int]string),
		multiPages:  make(map[string]string),
		layouts:     make(map[int]*pagelayout.Page),
		log:         log.Component("pagecache"),
		metrics:     m,
	}, nil
}

// Path returns the path of the source document.
func (c *Cache) Path() string {
	return c.path
}

// Dir returns the directory page files are written to.
func (c *Cache) Dir() string {
	return c.dir
}

// Params returns the layout parameters passed to the extractor.
func (c *Cache) Params() *pagelayout.Params {
	return c.params
}

// SetParams replaces the layout parameters for later extractions.
// Layouts already cached are kept.
func (c *Cache) SetParams(params *pagelayout.Params) {
	c.params = params
}

// Document returns the source document, opening it on first use.
// A failed open is not remembered; the next call tries again.
func (c *Cache) Document() (Document, error) {
	if c.doc != nil {
		return c.doc, nil
	}
	doc, err := c.backend.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentOpen, c.path, err)
	}
	c.doc = doc
	return doc, nil
}

// PageCount returns the number of pages of the source document. It is
// computed once.
func (c *Cache) PageCount() (int, error) {
	if c.pageCount >= 0 {
		return c.pageCount, nil
	}
	doc, err := c.Document()
	if err != nil {
		return 0, err
	}
	c.pageCount = doc.PageCount()
	return c.pageCount, nil
}

// SinglePage returns a file holding only the page at index.
// For a one page document, page 0 is the source document itself.
func (c *Cache) SinglePage(index int) (string, error) {
	if path, ok := c.singlePages[index]; ok {
		c.metrics.RecordLookup(metrics.CacheSinglePage, 1, 0)
		return path, nil
	}
	count, err := c.PageCount()
	if err != nil {
		return "", err
	}
	if count == 1 && index == 0 {
		// the source document is the page file, nothing is written
		c.metrics.RecordLookup(metrics.CacheSinglePage, 1, 0)
		return c.path, nil
	}
	c.metrics.RecordLookup(metrics.CacheSinglePage, 0, 1)

	path := filepath.Join(c.dir, singlePageName(index))
	if err := c.materialize(metrics.CacheSinglePage, []int{index}, path); err != nil {
		return "", err
	}
	c.singlePages[index] = path
	return path, nil
}

// MultiplePages returns a file holding the pages at indices, in that order
// and with repeats kept. It returns "" for an empty selection and defers
// to SinglePage for a selection of one.
//
// The selection is a cache key as given: [0 2] and [2 0] are separate
// files.
func (c *Cache) MultiplePages(indices []int) (string, error) {
	switch len(indices) {
	case 0:
		return "", nil
	case 1:
		return c.SinglePage(indices[0])
	}

	key := sequenceKey(indices)
	if path, ok := c.multiPages[key]; ok {
		c.metrics.RecordLookup(metrics.CacheMultiPage, 1, 0)
		return path, nil
	}
	c.metrics.RecordLookup(metrics.CacheMultiPage, 0, 1)

	path := filepath.Join(c.dir, multiPageName(indices))
	selection := append([]int(nil), indices...)
	if err := c.materialize(metrics.CacheMultiPage, selection, path); err != nil {
		return "", err
	}
	c.multiPages[key] = path
	return path, nil
}

func (c *Cache) materialize(kind string, indices []int, path string) error {
	start := time.Now()
	err := c.writeSubset(indices, path)
	c.log.LogMaterialize(kind, indices, path, time.Since(start), err)
	if err != nil {
		return err
	}
	c.metrics.RecordMaterialization(kind)
	return nil
}

func (c *Cache) writeSubset(indices []int, path string) error {
	doc, err := c.Document()
	if err != nil {
		return err
	}
	sub, err := doc.Subset(indices)
	if err != nil {
		return fmt.Errorf("pages %v: %w", indices, err)
	}
	if err := sub.Write(path); err != nil {
		return fmt.Errorf("pages %v: %w", indices, err)
	}
	return nil
}

// Layout returns the layout of the page at index.
func (c *Cache) Layout(index int) (*pagelayout.Page, error) {
	if page, ok := c.layouts[index]; ok {
		c.metrics.RecordLookup(metrics.CacheLayout, 1, 0)
		return page.Clone(), nil
	}
	c.metrics.RecordLookup(metrics.CacheLayout, 0, 1)

	path, err := c.SinglePage(index)
	if err != nil {
		return nil, err
	}
	pages, err := c.extract(path, 1)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index, err)
	}
	c.layouts[index] = pages[0]
	return pages[0].Clone(), nil
}

// Layouts returns the layouts of the pages at indices, keyed by index.
//
// Cached pages are served from memory. The remaining pages are written to
// one combined file, in request order, and analyzed with a single
// extractor call; the n-th page of the result belongs to the n-th missing
// index.
func (c *Cache) Layouts(indices []int) (map[int]*pagelayout.Page, error) {
	result := make(map[int]*pagelayout.Page, len(indices))
	var missing []int
	for _, index := range indices {
		if page, ok := c.layouts[index]; ok {
			result[index] = page.Clone()
			continue
		}
		missing = append(missing, index)
	}
	hits := len(indices) - len(missing)
	c.log.LogCache("layouts", hits, len(missing))
	c.metrics.RecordLookup(metrics.CacheLayout, hits, len(missing))

	if len(missing) == 0 {
		return result, nil
	}

	path, err := c.MultiplePages(missing)
	if err != nil {
		return nil, err
	}
	pages, err := c.extract(path, len(missing))
	if err != nil {
		return nil, fmt.Errorf("pages %v: %w", missing, err)
	}
	for pos, index := range missing {
		c.layouts[index] = pages[pos]
		result[index] = pages[pos].Clone()
	}
	return result, nil
}

// AllLayouts returns the layout of every page of the document.
//
// With nothing cached the source document is analyzed in one pass.
// Otherwise only the uncached pages are extracted, through Layouts.
func (c *Cache) AllLayouts() (map[int]*pagelayout.Page, error) {
	count, err := c.PageCount()
	if err != nil {
		return nil, err
	}

	if len(c.layouts) == 0 {
		if count == 0 {
			return map[int]*pagelayout.Page{}, nil
		}
		pages, err := c.extract(c.path, count)
		if err != nil {
			return nil, err
		}
		for index, page := range pages {
			c.layouts[index] = page
		}
		c.metrics.RecordLookup(metrics.CacheLayout, 0, count)
		return pagelayout.ClonePages(c.layouts), nil
	}

	result := make(map[int]*pagelayout.Page, count)
	var missing []int
	for index := 0; index < count; index++ {
		if page, ok := c.layouts[index]; ok {
			result[index] = page.Clone()
			continue
		}
		missing = append(missing, index)
	}
	c.metrics.RecordLookup(metrics.CacheLayout, count-len(missing), 0)
	if len(missing) == 0 {
		return result, nil
	}

	fresh, err := c.Layouts(missing)
	if err != nil {
		return nil, err
	}
	for index, page := range fresh {
		result[index] = page
	}
	return result, nil
}

// extract runs the extractor over path and checks that it produced want
// pages. Nothing is cached by extract itself.
func (c *Cache) extract(path string, want int) ([]*pagelayout.Page, error) {
	start := time.Now()
	pages, err := c.extractor.Extract(path, c.params)
	if err == nil && len(pages) != want {
		err = fmt.Errorf("extractor returned %d pages, expected %d", len(pages), want)
	}
	duration := time.Since(start)
	c.log.LogExtraction(path, len(pages), duration, err)
	c.metrics.RecordExtraction(len(pages), duration, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}
	return pages, nil
}

// CachedLayouts reports how many page layouts are cached.
func (c *Cache) CachedLayouts() int {
	return len(c.layouts)
}
