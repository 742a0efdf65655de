// server is the transcript memory backend for the wearable recorder: it
// ingests transcribed audio chunks into day buckets, indexes them for
// semantic search, and serves context views, summaries, and per-day chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	"github.com/Anmol-TheDev/AI-pendant/internal/analysis"
	"github.com/Anmol-TheDev/AI-pendant/internal/api"
	"github.com/Anmol-TheDev/AI-pendant/internal/buckets"
	"github.com/Anmol-TheDev/AI-pendant/internal/chat"
	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/embeddings"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/pipeline"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/internal/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLoggerWithFormat(logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefaultLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	meta, err := openMetaStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = meta.Close() }()

	vectors, err := openVectorStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = vectors.Close() }()

	generator := newGenerator(ctx, cfg, logger)
	embedder := newEmbedder(ctx, cfg, logger)

	resolver := buckets.NewResolver(meta, logger)
	analyzer := analysis.NewAnalyzer(generator)
	ingestor := pipeline.NewIngestor(resolver, analyzer, embedder, meta, vectors, logger)
	engine := retrieval.NewEngine(meta, vectors, embedder, cfg.Search, logger)
	summarizer := summary.NewSummarizer(meta, generator, cfg.Summary, logger)
	chatManager := chat.NewManager(meta, engine, generator, logger)

	server := api.NewServer(cfg, ingestor, engine, summarizer, chatManager, meta, vectors, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func openMetaStore(cfg *config.Config, logger logging.Logger) (storage.MetaStore, error) {
	if cfg.Store.Path == "" {
		logger.Warn("No store path configured, using in-memory store")
		return storage.NewMemoryMetaStore(), nil
	}
	meta, err := storage.NewSQLiteMetaStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open meta store: %w", err)
	}
	logger.Info("Meta store opened", "path", cfg.Store.Path)
	return meta, nil
}

func openVectorStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (storage.VectorStore, error) {
	if cfg.Qdrant.Host == "" {
		logger.Warn("No Qdrant host configured, using in-memory vector store")
		return storage.NewMemoryVectorStore(), nil
	}
	store := storage.NewRetryableVectorStore(storage.NewQdrantStore(&cfg.Qdrant, logger), nil)
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	return store, nil
}

// newGenerator returns nil when no API key is configured; every consumer
// degrades to its local fallback.
func newGenerator(ctx context.Context, cfg *config.Config, logger logging.Logger) ai.Generator {
	if cfg.Gemini.APIKey == "" {
		logger.Warn("No Gemini API key configured, text generation disabled")
		return nil
	}
	generator, err := ai.NewGeminiGenerator(ctx, &cfg.Gemini)
	if err != nil {
		logger.Warn("Failed to create Gemini generator, text generation disabled", "error", err)
		return nil
	}
	return generator
}

// newEmbedder builds the embedding chain: Gemini when configured, wrapped
// in the resilient fallback, optionally fronted by the Redis cache. The
// chain never fails a caller.
func newEmbedder(ctx context.Context, cfg *config.Config, logger logging.Logger) embeddings.EmbeddingService {
	var provider embeddings.EmbeddingService
	if cfg.Gemini.APIKey != "" {
		gemini, err := embeddings.NewGeminiEmbeddingService(ctx, &cfg.Gemini)
		if err != nil {
			logger.Warn("Failed to create Gemini embedder, using fallback only", "error", err)
		} else {
			provider = gemini
		}
	} else {
		logger.Warn("No Gemini API key configured, using fallback embeddings")
	}

	var embedder embeddings.EmbeddingService = embeddings.NewResilientService(provider)

	if cfg.Redis.Enabled {
		cached, err := embeddings.NewCachedService(ctx, embedder, &cfg.Redis)
		if err != nil {
			logger.Warn("Embedding cache unavailable, continuing without it", "error", err)
		} else {
			embedder = cached
		}
	}
	return embedder
}
