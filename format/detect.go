// Package format checks that an input file is a PDF and tells other
// document formats apart for error reporting.
package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotPDF is returned by CheckPDF for files without a PDF header.
var ErrNotPDF = errors.New("not a PDF document")

// SupportedExtensions are the file extensions accepted as PDF input.
var SupportedExtensions = []string{".pdf"}

// DefaultExtension is appended to document names without an extension.
const DefaultExtension = ".pdf"

// Type is the document type name reported for PDF documents.
const Type = "pdf"

// headerWindow is how far into a file the %PDF- marker may appear.
// Readers accept leading garbage before the header.
const headerWindow = 1024

// Format is a document format.
type Format int

const (
	Unknown Format = iota
	PDF
	DOCX
	XLSX
	PPTX
	ODT
	HTML
)

var names = map[Format]string{
	PDF:  "PDF",
	DOCX: "DOCX",
	XLSX: "XLSX",
	PPTX: "PPTX",
	ODT:  "ODT",
	HTML: "HTML",
}

func (f Format) String() string {
	if name, ok := names[f]; ok {
		return name
	}
	return "Unknown"
}

// IsSupported reports whether filename has a supported PDF extension.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Detect guesses the format of a file from its extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".xlsx":
		return XLSX
	case ".pptx":
		return PPTX
	case ".odt":
		return ODT
	case ".html", ".htm":
		return HTML
	}
	return Unknown
}

// Header describes the start of a PDF file.
type Header struct {
	// Offset is the position of the %PDF- marker.
	Offset int
	// Version is the declared version, e.g. "1.7".
	Version string
}

// ParseHeader finds the PDF header in the first bytes of a file.
func ParseHeader(data []byte) (Header, bool) {
	if len(data) > headerWindow {
		data = data[:headerWindow]
	}
	i := bytes.Index(data, []byte("%PDF-"))
	if i < 0 {
		return Header{}, false
	}

	rest := data[i+5:]
	end := 0
	for end < len(rest) && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	return Header{Offset: i, Version: string(rest[:end])}, true
}

// Sniff determines the format of r from its content.
func Sniff(r io.ReaderAt, size int64) (Format, error) {
	buf := make([]byte, headerWindow)
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	buf = buf[:n]

	if _, ok := ParseHeader(buf); ok {
		return PDF, nil
	}
	if bytes.HasPrefix(buf, []byte("PK\x03\x04")) {
		return sniffZip(r, size)
	}
	if looksLikeHTML(buf) {
		return HTML, nil
	}
	return Unknown, nil
}

func sniffZip(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}
	for _, f := range zr.File {
		switch {
		case f.Name == "mimetype":
			if isODT(f) {
				return ODT, nil
			}
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		}
	}
	return Unknown, nil
}

func isODT(f *zip.File) bool {
	rc, err := f.Open()
	if err != nil {
		return false
	}
	defer rc.Close()
	data, _ := io.ReadAll(io.LimitReader(rc, 128))
	return bytes.HasPrefix(data, []byte("application/vnd.oasis.opendocument.text"))
}

func looksLikeHTML(data []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(data)))
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		(strings.HasPrefix(head, "<?xml") && strings.Contains(head, "<html"))
}

// CheckPDF verifies that the file at path starts with a PDF header and
// returns it. Other formats yield an error wrapping ErrNotPDF that names
// what was found instead.
func CheckPDF(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Header{}, err
	}
	if h, ok := ParseHeader(buf[:n]); ok {
		return h, nil
	}

	info, err := f.Stat()
	if err != nil {
		return Header{}, err
	}
	found, _ := Sniff(f, info.Size())
	if found == Unknown {
		return Header{}, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	return Header{}, fmt.Errorf("%w: %s is a %s document", ErrNotPDF, path, found)
}
