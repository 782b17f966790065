// Resume-analyzer serves resume analysis over HTTP.
//
// A POST /analyze with a multipart PDF runs the full pipeline: text
// extraction, chunking, embedding, retrieval-grounded generation, and
// principle validation of the improvement suggestions.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	OPENAI_API_KEY=sk-... resume-analyzer
//
//	# Configure via file and environment
//	SERVER_PORT=9090 resume-analyzer -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/config"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/constitution"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/document"
	embedsvc "github.com/jhonnycheong-pursuit/resume-analyzer/internal/embeddings"
	apihttp "github.com/jhonnycheong-pursuit/resume-analyzer/internal/http"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/llm"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/logging"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/pipeline"
	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/rag"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run wires every component and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting resume-analyzer",
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.OpenAI.Model),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	analyzer, err := buildPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	srv, err := apihttp.NewServer(analyzer, logger, &apihttp.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		MaxUpload: cfg.Server.MaxUpload,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// buildPipeline constructs the analysis pipeline from one shared OpenAI
// client: the same credential backs both embedding and generation.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.OpenAI.APIKey.Value()),
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	embedService, err := embedsvc.NewService(embedder, cfg.OpenAI.Timeout.Duration(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	completer, err := llm.NewClient(client, cfg.OpenAI.Timeout.Duration(), cfg.OpenAI.RateLimit, cfg.OpenAI.RateBurst)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	engine, err := rag.NewEngine(embedService, completer, rag.Config{
		TopK:            cfg.Pipeline.TopK,
		MaxContextChars: cfg.Pipeline.MaxContextChars,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating rag engine: %w", err)
	}

	validator, err := constitution.NewValidator(completer, logger)
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}

	extractor, err := document.NewExtractor(logger)
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	return pipeline.New(extractor, embedService, engine, validator,
		pipeline.Config{
			ChunkSize:    cfg.Pipeline.ChunkSize,
			ChunkOverlap: cfg.Pipeline.ChunkOverlap,
			Principles:   constitution.DefaultPrinciples(),
		},
		logger.Named("pipeline"),
		pipeline.NewMetrics(prometheus.DefaultRegisterer),
	)
}
