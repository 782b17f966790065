package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"go.uber.org/zap"
)

// Extractor reads PDF files and produces per-page extracted text.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a PDF text extractor.
func NewExtractor(logger *zap.Logger) (*Extractor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Extractor{logger: logger}, nil
}

// Extract loads the PDF at path and returns its text, one Page per PDF page.
// The name parameter is the original upload filename, kept as the document's
// source identifier. Any loader failure wraps ErrParse.
func (e *Extractor) Extract(ctx context.Context, path, name string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrParse, filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrParse)
	}

	loader := documentloaders.NewPDF(f, info.Size())
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no pages extracted", ErrParse)
	}

	doc := &Document{Name: name, Pages: make([]Page, 0, len(docs))}
	empty := true
	for i, d := range docs {
		text := strings.TrimSpace(d.PageContent)
		if text != "" {
			empty = false
		}
		doc.Pages = append(doc.Pages, Page{
			Number: pageNumber(d.Metadata, i),
			Text:   text,
		})
	}
	if empty {
		return nil, fmt.Errorf("%w: document contains no extractable text", ErrParse)
	}

	e.logger.Debug("extracted document",
		zap.String("document", name),
		zap.Int("pages", len(doc.Pages)))

	return doc, nil
}

// pageNumber reads the loader's page metadata, falling back to position.
func pageNumber(metadata map[string]any, position int) int {
	switch v := metadata["page"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return position + 1
	}
}
