// Package vectorindex provides an in-memory nearest-neighbor index over the
// segments of a single document.
//
// The index is built once per analysis request, is read-only after Build,
// and is discarded with the request. Search is an exact linear scan with
// cosine similarity: document-scale corpora are small enough that an
// approximate structure would buy nothing, and the exact scan keeps results
// fully deterministic. A larger-corpus rewrite can swap in an approximate
// index behind the same Query contract.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/chunker"
)

var (
	// ErrEmptyIndex indicates an attempt to build an index with no segments.
	ErrEmptyIndex = errors.New("cannot build index with no segments")

	// ErrLengthMismatch indicates segments and vectors of different lengths.
	ErrLengthMismatch = errors.New("segments and vectors length mismatch")

	// ErrDimensionMismatch indicates a vector whose dimension differs from
	// the index's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Hit is one search result: a segment and its similarity to the query.
type Hit struct {
	Segment chunker.Segment
	Score   float32
}

// Index maps embedding vectors to their originating segments.
type Index struct {
	segments []chunker.Segment
	vectors  [][]float32
	norms    []float64
	dim      int
}

// Build constructs an index from parallel segment and vector slices. The
// vector dimension is fixed by the first vector; every vector must match.
func Build(segments []chunker.Segment, vectors [][]float32) (*Index, error) {
	if len(segments) != len(vectors) {
		return nil, fmt.Errorf("%w: %d segments, %d vectors", ErrLengthMismatch, len(segments), len(vectors))
	}
	if len(segments) == 0 {
		return nil, ErrEmptyIndex
	}

	dim := len(vectors[0])
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		norms[i] = norm(v)
	}

	ix := &Index{
		segments: make([]chunker.Segment, len(segments)),
		vectors:  make([][]float32, len(vectors)),
		norms:    norms,
		dim:      dim,
	}
	copy(ix.segments, segments)
	copy(ix.vectors, vectors)
	return ix, nil
}

// Len returns the number of indexed segments.
func (ix *Index) Len() int {
	return len(ix.segments)
}

// Dimension returns the vector dimension of the index.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Query returns up to k segments ordered by descending cosine similarity to
// vector. Ties are broken by ascending segment index, so identical inputs
// always produce identical output.
func (ix *Index) Query(vector []float32, k int) ([]Hit, error) {
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d", ErrDimensionMismatch, len(vector), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(vector)

	hits := make([]Hit, len(ix.segments))
	for i := range ix.segments {
		hits[i] = Hit{
			Segment: ix.segments[i],
			Score:   cosine(ix.vectors[i], vector, ix.norms[i], queryNorm),
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Segment.Index < hits[b].Segment.Index
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// cosine computes dot(a, b) / (|a| * |b|), with zero-norm vectors scoring 0.
func cosine(a, b []float32, normA, normB float64) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (normA * normB))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
