// Package rag answers natural-language queries about one document by
// retrieving relevant segments from its vector index and grounding a
// generation call on them.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/vectorindex"
)

const answerPrompt = `You are reviewing a resume. Use only the provided context to answer the question. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`

// Embedder embeds a query string.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer issues one bounded generation call.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error)
}

// Config holds retrieval tunables.
type Config struct {
	// TopK is the number of segments retrieved per query.
	TopK int

	// MaxContextChars caps the assembled context block.
	MaxContextChars int
}

// Engine runs retrieval-grounded generation against a per-request index.
// Answers are not cached or deduplicated: every call is an independent
// retrieval and generation round trip, which keeps answers from one
// document session from ever leaking into another.
type Engine struct {
	embedder  Embedder
	completer Completer
	cfg       Config
	logger    *zap.Logger
}

// NewEngine creates a RAG engine.
func NewEngine(embedder Embedder, completer Completer, cfg Config, logger *zap.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("top-k must be at least 1, got %d", cfg.TopK)
	}
	if cfg.MaxContextChars <= 0 {
		return nil, fmt.Errorf("max context chars must be positive, got %d", cfg.MaxContextChars)
	}
	return &Engine{embedder: embedder, completer: completer, cfg: cfg, logger: logger}, nil
}

// Answer embeds query, retrieves the top-k most similar segments from index,
// and generates an answer grounded on them, returned verbatim.
//
// Retrieval returning no hits degrades to an empty-context generation call
// rather than failing; embedding or generation failures are returned to the
// caller, which owns the substitution policy.
func (e *Engine) Answer(ctx context.Context, index *vectorindex.Index, query string) (string, error) {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	hits, err := index.Query(vec, e.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieving segments: %w", err)
	}

	contextBlock := e.buildContext(hits)
	if contextBlock == "" {
		// Should not happen with a non-empty index; answer without
		// grounding instead of failing the whole pipeline.
		e.logger.Warn("retrieval returned no segments, generating without context",
			zap.String("query", query))
		contextBlock = "(no relevant resume content found)"
	}

	start := time.Now()
	answer, err := e.completer.Complete(ctx, fmt.Sprintf(answerPrompt, contextBlock, query))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	e.logger.Debug("answered query",
		zap.String("query", query),
		zap.Int("retrieved", len(hits)),
		zap.Int("context_chars", len(contextBlock)),
		zap.Duration("duration", time.Since(start)))

	return answer, nil
}

// buildContext concatenates retrieved segments in ranked order, stopping at
// the configured character budget. The first segment is hard-truncated if
// it alone exceeds the budget.
func (e *Engine) buildContext(hits []vectorindex.Hit) string {
	var b strings.Builder
	for i, h := range hits {
		content := h.Segment.Content
		if i == 0 && len([]rune(content)) > e.cfg.MaxContextChars {
			content = string([]rune(content)[:e.cfg.MaxContextChars])
		}
		if b.Len() > 0 {
			if b.Len()+len("\n\n")+len(content) > e.cfg.MaxContextChars {
				break
			}
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String()
}
