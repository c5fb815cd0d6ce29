// Package document implements the page cache backend on top of pdfcpu.
//
// A Document keeps the raw bytes of the file it was read from. Subsets are
// built with pdfcpu's page collection, which keeps the requested order and
// allows a page to appear more than once:
//
//	backend := document.NewBackend()
//	doc, err := backend.Open("report.pdf")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sub, err := doc.Subset([]int{2, 0, 0})
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = sub.Write("reordered.pdf")
//
// Page indices are zero-based.
package document
