package pagecache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/podder-ai/taskpdf/pagelayout"
)

// The fakes below use a text "document": the comma separated ids of the
// source pages it contains, e.g. "0,0,1".

type calls struct {
	opens   int
	subsets [][]int
	writes  []string
}

type fakeBackend struct {
	calls   *calls
	openErr error
}

func (b *fakeBackend) Open(path string) (Document, error) {
	b.calls.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	pages, err := readPages(path)
	if err != nil {
		return nil, err
	}
	return &fakeDoc{pages: pages, calls: b.calls}, nil
}

type fakeDoc struct {
	pages []int
	calls *calls
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Subset(indices []int) (Document, error) {
	d.calls.subsets = append(d.calls.subsets, append([]int(nil), indices...))
	sub := &fakeDoc{calls: d.calls}
	for _, i := range indices {
		if i < 0 || i >= len(d.pages) {
			return nil, fmt.Errorf("page %d of %d: %w", i, len(d.pages), ErrInvalidIndex)
		}
		sub.pages = append(sub.pages, d.pages[i])
	}
	return sub, nil
}

func (d *fakeDoc) Write(path string) error {
	d.calls.writes = append(d.calls.writes, path)
	return os.WriteFile(path, []byte(sequenceKey(d.pages)), 0644)
}

func readPages(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var pages []int
	for _, f := range strings.Split(string(data), ",") {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, n)
	}
	return pages, nil
}

// fakeExtractor reports the source page id of every page as its text.
type fakeExtractor struct {
	paths  []string
	params []*pagelayout.Params
	err    error
	drop   bool // return one page less than the file holds
}

func (e *fakeExtractor) Extract(path string, params *pagelayout.Params) ([]*pagelayout.Page, error) {
	e.paths = append(e.paths, path)
	e.params = append(e.params, params)
	if e.err != nil {
		return nil, e.err
	}
	ids, err := readPages(path)
	if err != nil {
		return nil, err
	}
	var pages []*pagelayout.Page
	for pos, id := range ids {
		pages = append(pages, &pagelayout.Page{
			Index:    pos,
			Text:     fmt.Sprintf("page %d", id),
			Elements: []pagelayout.Element{{Type: pagelayout.TypeParagraph, Text: fmt.Sprintf("page %d", id)}},
			Lines:    []pagelayout.Line{{Text: fmt.Sprintf("page %d", id)}},
		})
	}
	if e.drop && len(pages) > 0 {
		pages = pages[:len(pages)-1]
	}
	return pages, nil
}

type fixture struct {
	cache     *Cache
	calls     *calls
	backend   *fakeBackend
	extractor *fakeExtractor
	source    string
}

func newFixture(t *testing.T, pageCount int) *fixture {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "source.pdf")
	ids := make([]int, pageCount)
	for i := range ids {
		ids[i] = i
	}
	if err := os.WriteFile(source, []byte(sequenceKey(ids)), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	c := &calls{}
	f := &fixture{
		calls:     c,
		backend:   &fakeBackend{calls: c},
		extractor: &fakeExtractor{},
		source:    source,
	}
	cache, err := New(source, f.backend, f.extractor, Config{Dir: dir})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.cache = cache
	return f
}

func pagesIn(t *testing.T, path string) []int {
	t.Helper()
	pages, err := readPages(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return pages
}

func TestNewDoesNotOpen(t *testing.T) {
	f := newFixture(t, 3)

	if got := f.cache.Path(); got != f.source {
		t.Errorf("Path() = %q, want %q", got, f.source)
	}
	if f.calls.opens != 0 {
		t.Errorf("expected no open before first use, got %d", f.calls.opens)
	}
}

func TestPageCountMemoized(t *testing.T) {
	f := newFixture(t, 3)

	for i := 0; i < 3; i++ {
		n, err := f.cache.PageCount()
		if err != nil {
			t.Fatalf("PageCount failed: %v", err)
		}
		if n != 3 {
			t.Errorf("PageCount() = %d, want 3", n)
		}
	}

	// rewriting the source must not change the memoized value
	if err := os.WriteFile(f.source, []byte("0"), 0644); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.cache.PageCount(); n != 3 {
		t.Errorf("PageCount() after source change = %d, want 3", n)
	}
	if f.calls.opens != 1 {
		t.Errorf("expected 1 open, got %d", f.calls.opens)
	}
}

func TestOpenFailure(t *testing.T) {
	f := newFixture(t, 3)
	f.backend.openErr = errors.New("corrupt xref")

	_, err := f.cache.PageCount()
	if !errors.Is(err, ErrDocumentOpen) {
		t.Fatalf("expected ErrDocumentOpen, got %v", err)
	}
	if _, err := f.cache.SinglePage(0); !errors.Is(err, ErrDocumentOpen) {
		t.Errorf("expected ErrDocumentOpen from SinglePage, got %v", err)
	}

	f.backend.openErr = nil
	n, err := f.cache.PageCount()
	if err != nil || n != 3 {
		t.Errorf("PageCount() after recovery = %d, %v", n, err)
	}
	if f.calls.opens != 3 {
		t.Errorf("expected 3 open attempts, got %d", f.calls.opens)
	}
}

func TestSinglePageCached(t *testing.T) {
	f := newFixture(t, 3)

	first, err := f.cache.SinglePage(1)
	if err != nil {
		t.Fatalf("SinglePage failed: %v", err)
	}
	second, err := f.cache.SinglePage(1)
	if err != nil {
		t.Fatalf("SinglePage failed: %v", err)
	}

	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if got, want := filepath.Base(first), "single_page_1.pdf"; got != want {
		t.Errorf("file name = %q, want %q", got, want)
	}
	if len(f.calls.writes) != 1 {
		t.Errorf("expected 1 write, got %d", len(f.calls.writes))
	}
	if got := pagesIn(t, first); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("file pages = %v, want [1]", got)
	}
}

func TestSinglePageOnePageDocument(t *testing.T) {
	f := newFixture(t, 1)

	path, err := f.cache.SinglePage(0)
	if err != nil {
		t.Fatalf("SinglePage failed: %v", err)
	}
	if path != f.source {
		t.Errorf("SinglePage(0) = %q, want source %q", path, f.source)
	}
	if len(f.calls.writes) != 0 {
		t.Errorf("expected no write, got %v", f.calls.writes)
	}
}

func TestSinglePageInvalidIndex(t *testing.T) {
	tests := []struct {
		name      string
		pageCount int
		index     int
	}{
		{"past end", 3, 3},
		{"negative", 3, -1},
		{"one page document", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.pageCount)
			_, err := f.cache.SinglePage(tt.index)
			if !errors.Is(err, ErrInvalidIndex) {
				t.Fatalf("expected ErrInvalidIndex, got %v", err)
			}
			if len(f.cache.singlePages) != 0 {
				t.Error("failed page must not be cached")
			}
		})
	}
}

func TestMultiplePagesEmptyAndSingle(t *testing.T) {
	f := newFixture(t, 3)

	path, err := f.cache.MultiplePages(nil)
	if err != nil || path != "" {
		t.Errorf("MultiplePages(nil) = %q, %v; want \"\", nil", path, err)
	}
	if f.calls.opens != 0 {
		t.Error("empty selection must not open the document")
	}

	single, err := f.cache.MultiplePages([]int{2})
	if err != nil {
		t.Fatalf("MultiplePages([2]) failed: %v", err)
	}
	want, _ := f.cache.SinglePage(2)
	if single != want {
		t.Errorf("MultiplePages([2]) = %q, want %q", single, want)
	}
	if len(f.cache.multiPages) != 0 {
		t.Error("single selection must not use the multi page cache")
	}
}

func TestMultiplePagesOrderAndDuplicates(t *testing.T) {
	f := newFixture(t, 3)

	path, err := f.cache.MultiplePages([]int{0, 0, 1})
	if err != nil {
		t.Fatalf("MultiplePages failed: %v", err)
	}
	if got := pagesIn(t, path); !reflect.DeepEqual(got, []int{0, 0, 1}) {
		t.Errorf("file pages = %v, want [0 0 1]", got)
	}
	if got, want := filepath.Base(path), "multi_page_0,0,1.pdf"; got != want {
		t.Errorf("file name = %q, want %q", got, want)
	}

	pages, err := f.extractor.Extract(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 layout pages, got %d", len(pages))
	}
	if pages[0].Text != pages[1].Text {
		t.Errorf("duplicate pages differ: %q vs %q", pages[0].Text, pages[1].Text)
	}
}

func TestMultiplePagesKeyIsOrderSensitive(t *testing.T) {
	f := newFixture(t, 3)

	a, err := f.cache.MultiplePages([]int{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.cache.MultiplePages([]int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	again, err := f.cache.MultiplePages([]int{0, 2})
	if err != nil {
		t.Fatal(err)
	}

	if a == b {
		t.Errorf("[0 2] and [2 0] share a file: %q", a)
	}
	if a != again {
		t.Errorf("repeated selection returned %q, want %q", again, a)
	}
	if len(f.calls.writes) != 2 {
		t.Errorf("expected 2 writes, got %d", len(f.calls.writes))
	}
	if got := pagesIn(t, b); !reflect.DeepEqual(got, []int{2, 0}) {
		t.Errorf("[2 0] file pages = %v", got)
	}
}

func TestMultiplePagesSelectionNotRetained(t *testing.T) {
	f := newFixture(t, 3)

	sel := []int{1, 2}
	path, err := f.cache.MultiplePages(sel)
	if err != nil {
		t.Fatal(err)
	}
	sel[0] = 0

	again, err := f.cache.MultiplePages([]int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Errorf("caller mutation changed the cache key: %q vs %q", again, path)
	}
}

func TestLayoutSinglePage(t *testing.T) {
	f := newFixture(t, 3)

	page, err := f.cache.Layout(2)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if page.Text != "page 2" {
		t.Errorf("Text = %q, want %q", page.Text, "page 2")
	}
	if _, err := f.cache.Layout(2); err != nil {
		t.Fatal(err)
	}
	if len(f.extractor.paths) != 1 {
		t.Errorf("expected 1 extractor call, got %d", len(f.extractor.paths))
	}
}

func TestLayoutsPartialHit(t *testing.T) {
	f := newFixture(t, 3)

	if _, err := f.cache.Layouts([]int{0, 2}); err != nil {
		t.Fatalf("Layouts failed: %v", err)
	}
	if len(f.extractor.paths) != 1 {
		t.Fatalf("expected 1 extractor call, got %d", len(f.extractor.paths))
	}

	got, err := f.cache.Layouts([]int{0, 1, 2})
	if err != nil {
		t.Fatalf("Layouts failed: %v", err)
	}
	if len(f.extractor.paths) != 2 {
		t.Fatalf("expected 2 extractor calls, got %d", len(f.extractor.paths))
	}
	if pages := pagesIn(t, f.extractor.paths[1]); !reflect.DeepEqual(pages, []int{1}) {
		t.Errorf("second extraction covered pages %v, want [1]", pages)
	}

	for _, i := range []int{0, 1, 2} {
		want := fmt.Sprintf("page %d", i)
		if got[i] == nil || got[i].Text != want {
			t.Errorf("result[%d] = %+v, want text %q", i, got[i], want)
		}
	}
}

func TestLayoutsMapsByPosition(t *testing.T) {
	f := newFixture(t, 4)

	got, err := f.cache.Layouts([]int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got[3].Text != "page 3" || got[1].Text != "page 1" {
		t.Errorf("results not keyed by original index: 3=%q 1=%q", got[3].Text, got[1].Text)
	}
	// index inside the combined file, not in the document
	if got[3].Index != 0 || got[1].Index != 1 {
		t.Errorf("file positions = %d, %d; want 0, 1", got[3].Index, got[1].Index)
	}
	if f.cache.CachedLayouts() != 2 {
		t.Errorf("CachedLayouts() = %d, want 2", f.cache.CachedLayouts())
	}
}

func TestLayoutsAllCached(t *testing.T) {
	f := newFixture(t, 3)

	if _, err := f.cache.Layouts([]int{0, 1}); err != nil {
		t.Fatal(err)
	}
	got, err := f.cache.Layouts([]int{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
	if len(f.extractor.paths) != 1 {
		t.Errorf("expected no new extraction, got %d calls", len(f.extractor.paths))
	}

	empty, err := f.cache.Layouts(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Layouts(nil) = %v, %v", empty, err)
	}
}

func TestAllLayoutsFastPath(t *testing.T) {
	f := newFixture(t, 3)

	first, err := f.cache.AllLayouts()
	if err != nil {
		t.Fatalf("AllLayouts failed: %v", err)
	}
	if len(f.extractor.paths) != 1 || f.extractor.paths[0] != f.source {
		t.Fatalf("expected one extraction of the source, got %v", f.extractor.paths)
	}
	if len(f.calls.writes) != 0 {
		t.Errorf("fast path must not write page files, got %v", f.calls.writes)
	}

	first[0].Text = "changed"
	first[1].Elements[0].Text = "changed"
	delete(first, 2)

	second, err := f.cache.AllLayouts()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.extractor.paths) != 1 {
		t.Errorf("expected no second extraction, got %d", len(f.extractor.paths))
	}
	if len(second) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(second))
	}
	for i := 0; i < 3; i++ {
		want := fmt.Sprintf("page %d", i)
		if second[i].Text != want || second[i].Elements[0].Text != want {
			t.Errorf("page %d leaked a caller mutation: %+v", i, second[i])
		}
	}
}

func TestAllLayoutsFillsGaps(t *testing.T) {
	f := newFixture(t, 4)

	if _, err := f.cache.Layout(1); err != nil {
		t.Fatal(err)
	}
	all, err := f.cache.AllLayouts()
	if err != nil {
		t.Fatalf("AllLayouts failed: %v", err)
	}

	if len(f.extractor.paths) != 2 {
		t.Fatalf("expected 2 extractor calls, got %d", len(f.extractor.paths))
	}
	if pages := pagesIn(t, f.extractor.paths[1]); !reflect.DeepEqual(pages, []int{0, 2, 3}) {
		t.Errorf("gap extraction covered %v, want [0 2 3]", pages)
	}
	for i := 0; i < 4; i++ {
		if all[i] == nil || all[i].Text != fmt.Sprintf("page %d", i) {
			t.Errorf("all[%d] = %+v", i, all[i])
		}
	}
}

func TestAllLayoutsEmptyDocument(t *testing.T) {
	f := newFixture(t, 0)

	all, err := f.cache.AllLayouts()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty map, got %v", all)
	}
	if len(f.extractor.paths) != 0 {
		t.Errorf("expected no extraction, got %v", f.extractor.paths)
	}
}

func TestReturnedLayoutsAreCopies(t *testing.T) {
	f := newFixture(t, 2)

	page, err := f.cache.Layout(0)
	if err != nil {
		t.Fatal(err)
	}
	page.Text = "changed"
	page.Lines[0].Text = "changed"
	page.Elements = append(page.Elements, pagelayout.Element{Text: "extra"})

	multi, err := f.cache.Layouts([]int{0})
	if err != nil {
		t.Fatal(err)
	}
	if got := multi[0]; got.Text != "page 0" || got.Lines[0].Text != "page 0" || len(got.Elements) != 1 {
		t.Errorf("cached layout was modified through a returned value: %+v", got)
	}

	multi[0].Elements[0].Text = "changed"
	again, err := f.cache.Layout(0)
	if err != nil {
		t.Fatal(err)
	}
	if again.Elements[0].Text != "page 0" {
		t.Errorf("Layouts result aliases the cache: %q", again.Elements[0].Text)
	}
}

func TestExtractionFailureNotCached(t *testing.T) {
	f := newFixture(t, 3)
	f.extractor.err = errors.New("broken content stream")

	_, err := f.cache.Layouts([]int{0, 1})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if f.cache.CachedLayouts() != 0 {
		t.Errorf("failed batch was cached: %d entries", f.cache.CachedLayouts())
	}

	f.extractor.err = nil
	got, err := f.cache.Layouts([]int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 pages after recovery, got %d", len(got))
	}
	// the combined file from the failed call is reused
	if len(f.calls.writes) != 1 {
		t.Errorf("expected 1 write, got %d", len(f.calls.writes))
	}
}

func TestExtractorPageCountMismatch(t *testing.T) {
	f := newFixture(t, 3)
	f.extractor.drop = true

	if _, err := f.cache.Layouts([]int{0, 2}); !errors.Is(err, ErrExtraction) {
		t.Errorf("Layouts: expected ErrExtraction, got %v", err)
	}
	if _, err := f.cache.AllLayouts(); !errors.Is(err, ErrExtraction) {
		t.Errorf("AllLayouts: expected ErrExtraction, got %v", err)
	}
	if _, err := f.cache.Layout(1); !errors.Is(err, ErrExtraction) {
		t.Errorf("Layout: expected ErrExtraction, got %v", err)
	}
	if f.cache.CachedLayouts() != 0 {
		t.Errorf("mismatched output was cached")
	}
}

func TestParamsForwarded(t *testing.T) {
	f := newFixture(t, 2)
	params := pagelayout.DefaultParams()
	f.cache.SetParams(params)

	if _, err := f.cache.Layout(0); err != nil {
		t.Fatal(err)
	}
	if f.cache.Params() != params {
		t.Error("Params() did not return the configured value")
	}
	if len(f.extractor.params) != 1 || f.extractor.params[0] != params {
		t.Errorf("extractor did not receive the configured params")
	}
}

func TestExtractorFunc(t *testing.T) {
	var got string
	e := ExtractorFunc(func(path string, _ *pagelayout.Params) ([]*pagelayout.Page, error) {
		got = path
		return nil, nil
	})
	if _, err := e.Extract("a.pdf", nil); err != nil {
		t.Fatal(err)
	}
	if got != "a.pdf" {
		t.Errorf("got %q", got)
	}
}
