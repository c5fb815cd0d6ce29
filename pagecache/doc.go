// Package pagecache implements a lazily materialized, page addressable view
// over a PDF document.
//
// A [Cache] keeps three append-only maps for the lifetime of a document:
//
//   - single page files, keyed by page index
//   - multi page files, keyed by the requested index sequence as given
//     (order sensitive, duplicates preserved)
//   - per page layout objects, keyed by page index
//
// Page files are written into a working directory owned by the caller. A
// batch layout request serves cached pages from memory and sends only the
// missing pages to the [Extractor], in one call, through a combined file.
// Results are mapped back to their original indices by position.
//
// Layout objects leave the cache as deep copies; callers may modify what
// they receive.
//
// # Collaborators
//
// The document library and the layout analyzer are consumed through the
// [Backend], [Document] and [Extractor] interfaces. The taskpdf/document
// package provides a pdfcpu backend; taskpdf/pagelayout and
// taskpdf/plaintext provide extractors.
//
// # Concurrency
//
// A Cache is not safe for concurrent use. All calls block on the calling
// goroutine; use one Cache per goroutine or serialize access.
package pagecache
