// Package pdftest writes small valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes one generated page.
type Page struct {
	Text   string
	Rotate int
}

// Texts returns one page per text.
func Texts(texts ...string) []Page {
	pages := make([]Page, len(texts))
	for i, text := range texts {
		pages[i] = Page{Text: text}
	}
	return pages
}

// Numbered returns n pages reading "Page 1" to "Page n".
func Numbered(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Text: fmt.Sprintf("Page %d", i+1)}
	}
	return pages
}

// Bytes builds a letter sized PDF, one Helvetica text line per page.
func Bytes(pages []Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, page := range pages {
		rotate := ""
		if page.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", page.Rotate)
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]%s "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", rotate, 5+2*i))

		content := fmt.Sprintf("BT\n/F1 24 Tf\n72 700 Td\n(%s) Tj\nET", escape(page.Text))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// Write creates name in a fresh test directory and returns its path.
func Write(t testing.TB, name string, pages []Page) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Bytes(pages), 0644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}
