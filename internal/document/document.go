// Package document extracts text from uploaded resume files.
package document

import (
	"errors"
	"strings"
)

// ErrParse indicates the uploaded file could not be read as a PDF.
var ErrParse = errors.New("failed to parse document")

// Page is the extracted text of a single document page.
type Page struct {
	Number int
	Text   string
}

// Document is the extracted content of one uploaded resume. It exists only
// for the duration of a single analysis request and is never persisted.
type Document struct {
	Name  string
	Pages []Page
}

// Text returns the full document text with pages joined by newlines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}
