// Package embeddings generates vector embeddings for text segments via
// langchaingo's embeddings abstraction.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/chunker"
)

var (
	// ErrUnavailable indicates the external embedding service failed.
	ErrUnavailable = errors.New("embedding service unavailable")

	// ErrEmptyInput indicates empty or nil input.
	ErrEmptyInput = errors.New("empty or nil input")
)

// Client is the embedding provider boundary. langchaingo's
// *embeddings.EmbedderImpl satisfies it.
type Client interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Service wraps an embedding client with call timeouts and the batch
// guarantees the index builder relies on: output order matches input order
// and a batch either succeeds completely or fails as a unit.
type Service struct {
	client  Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates an embedding service.
func NewService(client Client, timeout time.Duration, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("embedding client cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{client: client, timeout: timeout, logger: logger}, nil
}

// EmbedSegments embeds all segments in one batch. The returned vectors are
// in segment order, one per segment. Any provider failure wraps
// ErrUnavailable and no partial result is returned.
func (s *Service) EmbedSegments(ctx context.Context, segments []chunker.Segment) ([][]float32, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to embed", ErrEmptyInput)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Content
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	vectors, err := s.client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d segments: %v", ErrUnavailable, len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d segments", ErrUnavailable, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for segment %d", ErrUnavailable, i)
		}
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: inconsistent vector dimensions (%d vs %d)", ErrUnavailable, len(v), len(vectors[0]))
		}
	}

	s.logger.Debug("embedded segments",
		zap.Int("count", len(vectors)),
		zap.Int("dimension", len(vectors[0])),
		zap.Duration("duration", time.Since(start)))

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", ErrEmptyInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, err := s.client.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", ErrUnavailable)
	}
	return vector, nil
}
