// Package chunker splits extracted document text into overlapping
// fixed-size segments suitable for embedding.
package chunker

import (
	"errors"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/document"
)

// DefaultChunkSize is the default window length in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between neighboring windows.
const DefaultChunkOverlap = 100

var (
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates an overlap that is negative or not
	// smaller than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")
)

// Segment is one ordered chunk of document text. Index is the global
// sequence position across the whole document; Page is the source page.
type Segment struct {
	Content string
	Index   int
	Page    int
}

// SplitText partitions text into consecutive windows of chunkSize
// characters, each window after the first starting chunkSize-overlap
// characters after the previous window's start. The last window may be
// shorter; trailing content is never dropped. Windows are measured in
// runes so multi-byte text never splits mid-character.
//
// Pure and deterministic: identical inputs always produce identical output.
func SplitText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	stride := chunkSize - overlap

	chunks := make([]string, 0, len(runes)/stride+1)
	for start := 0; start < len(runes); start += stride {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// Split chunks every page of doc, assigning a document-wide sequence index
// and the originating page number to each segment.
func Split(doc *document.Document, chunkSize, overlap int) ([]Segment, error) {
	var segments []Segment
	for _, page := range doc.Pages {
		chunks, err := SplitText(page.Text, chunkSize, overlap)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			segments = append(segments, Segment{
				Content: c,
				Index:   len(segments),
				Page:    page.Number,
			})
		}
	}
	return segments, nil
}
