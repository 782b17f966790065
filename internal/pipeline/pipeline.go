// Package pipeline orchestrates one resume analysis from uploaded PDF to
// assembled result.
//
// A run walks the states Received -> Indexed -> Analyzed -> Validated ->
// Completed, with Failed reachable from any non-terminal state. Every run
// builds its own vector index and discards it at the end; nothing is shared
// between concurrent requests.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/chunker"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/constitution"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/document"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/vectorindex"
)

// State is a pipeline run state.
type State string

const (
	StateReceived  State = "received"
	StateIndexed   State = "indexed"
	StateAnalyzed  State = "analyzed"
	StateValidated State = "validated"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Stage names the pipeline stages that can fail.
type Stage string

const (
	StageIndex    Stage = "index"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
)

// FailurePolicy is what a stage failure does to the run.
type FailurePolicy int

const (
	// PolicyAbort fails the whole run.
	PolicyAbort FailurePolicy = iota

	// PolicyPlaceholder substitutes a fixed degraded-service answer for
	// the failed query and advances.
	PolicyPlaceholder

	// PolicyKeepInput substitutes the stage's unmodified input and
	// advances.
	PolicyKeepInput
)

// stagePolicies is the per-stage degradation policy in one auditable place.
// Without an index there is nothing to analyze, so indexing aborts; a failed
// generation degrades only its own query; a failed validation never blocks
// delivery of an otherwise-successful analysis.
var stagePolicies = map[Stage]FailurePolicy{
	StageIndex:    PolicyAbort,
	StageGenerate: PolicyPlaceholder,
	StageValidate: PolicyKeepInput,
}

// PolicyFor returns the failure policy for a stage.
func PolicyFor(stage Stage) FailurePolicy {
	return stagePolicies[stage]
}

// The two fixed analysis queries.
const (
	sectionsQuery    = "List the key sections present in the resume (e.g., Education, Experience, Skills, Summary)."
	suggestionsQuery = "Provide specific and actionable suggestions to improve this resume for a software engineering role."
)

// degradedAnswer replaces a query's output when generation is unavailable.
const degradedAnswer = "Could not analyze the resume at this time."

// Result is the assembled analysis returned to the caller.
type Result struct {
	SectionsPresent        string `json:"sections_present"`
	ImprovementSuggestions string `json:"improvement_suggestions"`
}

// TextExtractor extracts per-page text from a PDF file.
type TextExtractor interface {
	Extract(ctx context.Context, path, name string) (*document.Document, error)
}

// Embedder embeds a batch of segments, order-preserving and atomic.
type Embedder interface {
	EmbedSegments(ctx context.Context, segments []chunker.Segment) ([][]float32, error)
}

// Answerer answers one query against a built index.
type Answerer interface {
	Answer(ctx context.Context, index *vectorindex.Index, query string) (string, error)
}

// Reviser re-checks text against the principle set.
type Reviser interface {
	Revise(ctx context.Context, text string, principles []constitution.Principle) (string, error)
}

// Config holds pipeline tunables.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Principles   []constitution.Principle
}

// Pipeline wires the analysis stages. It holds no per-request state: every
// Analyze call owns its document, segments, and index exclusively.
type Pipeline struct {
	extractor TextExtractor
	embedder  Embedder
	engine    Answerer
	validator Reviser
	cfg       Config
	logger    *zap.Logger
	metrics   *Metrics
}

// New creates a pipeline. metrics may be nil to disable instrumentation.
func New(extractor TextExtractor, embedder Embedder, engine Answerer, validator Reviser, cfg Config, logger *zap.Logger, metrics *Metrics) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", cfg.ChunkOverlap)
	}
	if len(cfg.Principles) == 0 {
		cfg.Principles = constitution.DefaultPrinciples()
	}
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		engine:    engine,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// run tracks one analysis through the state machine.
type run struct {
	state  State
	logger *zap.Logger
}

func (r *run) advance(next State) {
	r.logger.Debug("pipeline transition",
		zap.String("from", string(r.state)),
		zap.String("to", string(next)))
	r.state = next
}

func (r *run) fail(stage Stage, err error) error {
	r.logger.Error("pipeline failed",
		zap.String("state", string(r.state)),
		zap.String("stage", string(stage)),
		zap.Error(err))
	r.state = StateFailed
	return fmt.Errorf("%s: %w", stage, err)
}

// Analyze runs the full pipeline over the PDF stored at pdfPath. name is
// the original upload filename. The temporary file at pdfPath is removed
// before Analyze returns, on success and on failure alike.
func (p *Pipeline) Analyze(ctx context.Context, pdfPath, name string) (*Result, error) {
	r := &run{
		state: StateReceived,
		logger: p.logger.With(
			zap.String("analysis_id", uuid.NewString()),
			zap.String("document", name),
		),
	}

	defer func() {
		if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to remove temporary upload", zap.Error(err))
		}
		if r.state == StateCompleted {
			p.metrics.recordRun("completed")
		} else {
			p.metrics.recordRun("failed")
		}
	}()

	index, err := p.buildIndex(ctx, r, pdfPath, name)
	if err != nil {
		return nil, err
	}
	r.advance(StateIndexed)

	sections := p.answerOrDegrade(ctx, r, index, sectionsQuery)
	suggestions := p.answerOrDegrade(ctx, r, index, suggestionsQuery)
	r.advance(StateAnalyzed)

	// Only the improvement suggestions pass through principle validation;
	// the sections answer is returned as generated.
	validated := p.validateOrKeep(ctx, r, suggestions)
	r.advance(StateValidated)

	result := &Result{
		SectionsPresent:        sections,
		ImprovementSuggestions: validated,
	}
	r.advance(StateCompleted)

	r.logger.Info("analysis completed", zap.Int("index_segments", index.Len()))
	return result, nil
}

// buildIndex runs extract -> chunk -> embed -> build. Every failure in here
// follows StageIndex's abort policy.
func (p *Pipeline) buildIndex(ctx context.Context, r *run, pdfPath, name string) (*vectorindex.Index, error) {
	start := time.Now()
	defer p.metrics.observeStage(StageIndex, start)

	doc, err := p.extractor.Extract(ctx, pdfPath, name)
	if err != nil {
		return nil, r.fail(StageIndex, err)
	}

	segments, err := chunker.Split(doc, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		return nil, r.fail(StageIndex, err)
	}
	if len(segments) == 0 {
		return nil, r.fail(StageIndex, vectorindex.ErrEmptyIndex)
	}

	vectors, err := p.embedder.EmbedSegments(ctx, segments)
	if err != nil {
		return nil, r.fail(StageIndex, err)
	}

	index, err := vectorindex.Build(segments, vectors)
	if err != nil {
		return nil, r.fail(StageIndex, err)
	}

	r.logger.Debug("index built",
		zap.Int("segments", index.Len()),
		zap.Int("dimension", index.Dimension()))
	return index, nil
}

// answerOrDegrade applies StageGenerate's placeholder policy: a failed
// query degrades to the fixed message instead of aborting the run.
func (p *Pipeline) answerOrDegrade(ctx context.Context, r *run, index *vectorindex.Index, query string) string {
	start := time.Now()
	defer p.metrics.observeStage(StageGenerate, start)

	answer, err := p.engine.Answer(ctx, index, query)
	if err != nil {
		p.metrics.recordDegraded(StageGenerate)
		r.logger.Warn("generation unavailable, substituting placeholder",
			zap.String("query", query),
			zap.Error(err))
		return degradedAnswer
	}
	return answer
}

// validateOrKeep applies StageValidate's keep-input policy: a failed
// validation returns the unvalidated text and is only logged.
func (p *Pipeline) validateOrKeep(ctx context.Context, r *run, text string) string {
	start := time.Now()
	defer p.metrics.observeStage(StageValidate, start)

	validated, err := p.validator.Revise(ctx, text, p.cfg.Principles)
	if err != nil {
		p.metrics.recordDegraded(StageValidate)
		r.logger.Warn("validation unavailable, returning unvalidated text", zap.Error(err))
		return text
	}
	return validated
}
