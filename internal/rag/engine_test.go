package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/chunker"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/vectorindex"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func buildIndex(t *testing.T, contents ...string) *vectorindex.Index {
	t.Helper()

	segs := make([]chunker.Segment, len(contents))
	vecs := make([][]float32, len(contents))
	for i, c := range contents {
		segs[i] = chunker.Segment{Content: c, Index: i, Page: 1}
		vecs[i] = []float32{float32(i + 1), 1}
	}
	ix, err := vectorindex.Build(segs, vecs)
	require.NoError(t, err)
	return ix
}

func newEngine(t *testing.T, embedder Embedder, completer Completer, cfg Config) *Engine {
	t.Helper()

	e, err := NewEngine(embedder, completer, cfg, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	completer := &fakeCompleter{response: "ok"}

	cases := []struct {
		name      string
		embedder  Embedder
		completer Completer
		cfg       Config
	}{
		{"nil embedder", nil, completer, Config{TopK: 2, MaxContextChars: 100}},
		{"nil completer", embedder, nil, Config{TopK: 2, MaxContextChars: 100}},
		{"zero top-k", embedder, completer, Config{TopK: 0, MaxContextChars: 100}},
		{"zero context budget", embedder, completer, Config{TopK: 2, MaxContextChars: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name+" rejected", func(t *testing.T) {
			_, err := NewEngine(tc.embedder, tc.completer, tc.cfg, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestAnswer(t *testing.T) {
	t.Run("grounds the prompt on retrieved segments", func(t *testing.T) {
		ix := buildIndex(t, "Experience: 5 years Python", "Education: BSc", "Hobbies: chess")
		completer := &fakeCompleter{response: "The resume lists Experience and Education."}
		engine := newEngine(t, &fakeEmbedder{vector: []float32{1, 0}}, completer, Config{TopK: 2, MaxContextChars: 1000})

		answer, err := engine.Answer(context.Background(), ix, "Which sections are present?")
		require.NoError(t, err)
		assert.Equal(t, "The resume lists Experience and Education.", answer)

		require.Len(t, completer.prompts, 1)
		prompt := completer.prompts[0]
		assert.Contains(t, prompt, "Which sections are present?")
		// Exactly top-k segments make it into the context block.
		count := 0
		for _, content := range []string{"Experience: 5 years Python", "Education: BSc", "Hobbies: chess"} {
			if strings.Contains(prompt, content) {
				count++
			}
		}
		assert.Equal(t, 2, count)
	})

	t.Run("embedding failure is returned", func(t *testing.T) {
		ix := buildIndex(t, "content")
		engine := newEngine(t, &fakeEmbedder{err: errors.New("embed down")}, &fakeCompleter{}, Config{TopK: 1, MaxContextChars: 100})

		_, err := engine.Answer(context.Background(), ix, "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding query")
	})

	t.Run("generation failure is returned", func(t *testing.T) {
		ix := buildIndex(t, "content")
		engine := newEngine(t, &fakeEmbedder{vector: []float32{1, 0}}, &fakeCompleter{err: errors.New("llm down")}, Config{TopK: 1, MaxContextChars: 100})

		_, err := engine.Answer(context.Background(), ix, "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generating answer")
	})

	t.Run("dimension mismatch surfaces as retrieval error", func(t *testing.T) {
		ix := buildIndex(t, "content")
		engine := newEngine(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, &fakeCompleter{response: "x"}, Config{TopK: 1, MaxContextChars: 100})

		_, err := engine.Answer(context.Background(), ix, "query")
		require.Error(t, err)
		assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
	})
}

func TestBuildContext(t *testing.T) {
	engine := newEngine(t, &fakeEmbedder{vector: []float32{1, 0}}, &fakeCompleter{}, Config{TopK: 3, MaxContextChars: 20})

	t.Run("stops at the character budget", func(t *testing.T) {
		hits := []vectorindex.Hit{
			{Segment: chunker.Segment{Content: "twelve chars", Index: 0}},
			{Segment: chunker.Segment{Content: "this one will not fit", Index: 1}},
		}
		block := engine.buildContext(hits)
		assert.Equal(t, "twelve chars", block)
	})

	t.Run("hard-truncates an oversized first segment", func(t *testing.T) {
		hits := []vectorindex.Hit{
			{Segment: chunker.Segment{Content: strings.Repeat("a", 100), Index: 0}},
		}
		block := engine.buildContext(hits)
		assert.Len(t, block, 20)
	})

	t.Run("joins segments in ranked order", func(t *testing.T) {
		wide := newEngine(t, &fakeEmbedder{vector: []float32{1, 0}}, &fakeCompleter{}, Config{TopK: 3, MaxContextChars: 1000})
		hits := []vectorindex.Hit{
			{Segment: chunker.Segment{Content: "first", Index: 3}},
			{Segment: chunker.Segment{Content: "second", Index: 1}},
		}
		assert.Equal(t, "first\n\nsecond", wide.buildContext(hits))
	})
}
