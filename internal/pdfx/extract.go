// Package pdfx converts PDF documents into plain text. It is intentionally
// small and free of logging: callers decide how to handle malformed documents
// and what (if anything) to report.
//
// Extraction contract:
//   - Per-page texts are concatenated with a single newline between pages.
//   - A page that yields no extractable text contributes an empty segment,
//     never an error.
//   - Leading and trailing whitespace of the final result is stripped.
//   - Malformed input fails with the underlying parse error.
package pdfx

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract reads a PDF from r (size bytes long) and returns the newline-joined
// text of all pages.
func Extract(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	// Fonts repeat heavily across pages; share one cache for the document.
	fonts := make(map[string]*pdf.Font)
	parts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// Unreadable page content degrades to an empty segment.
			parts = append(parts, "")
			continue
		}
		parts = append(parts, text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// ExtractBytes is a convenience wrapper over Extract for in-memory documents.
func ExtractBytes(b []byte) (string, error) {
	return Extract(bytes.NewReader(b), int64(len(b)))
}

// ExtractFile opens path and extracts its text.
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return Extract(f, info.Size())
}
