package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-qa/internal/chromemdb"
	"document-qa/internal/chunker"
	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/ocr"
	"document-qa/internal/parser"
	"document-qa/internal/rag"
	"document-qa/internal/session"
)

// app wires the pipeline from config
type app struct {
	orchestrator *session.Orchestrator
	closers      []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	builder, err := a.newIndexBuilder(ctx, cfg, embedder)
	if err != nil {
		a.Close()
		return nil, err
	}

	recognizer, err := ocr.NewRecognizer(&cfg.OCR)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create ocr engine: %w", err)
	}
	if closer, ok := recognizer.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}
	extractor := parser.NewExtractor(recognizer, ocr.NewRasterizer(&cfg.OCR), &cfg.OCR)

	chk, err := chunker.New(cfg.RAG.ChunkSize, *cfg.RAG.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, err
	}

	llm, err := llmservice.NewModel(&cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	a.orchestrator = session.NewOrchestrator(extractor, chk, builder, rag.NewGenerator(llm, cfg), cfg.RAG.TopK)
	log.Debug().
		Str("index", cfg.Index.Backend).
		Str("embedder", cfg.EmbedLLM.Provider).
		Str("ocr", cfg.OCR.Engine).
		Str("model", cfg.LLM.Model).
		Msg("Pipeline ready")
	return a, nil
}

func (a *app) newIndexBuilder(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (models.IndexBuilder, error) {
	switch cfg.Index.Backend {
	case "memory":
		return chromemdb.NewBuilder(embedder), nil
	case "postgres":
		dbClient, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		dbInstance := db.NewDB(dbClient, cfg.Database.Debug)
		a.closers = append(a.closers, dbInstance)

		if err := db.InitDB(ctx, dbInstance); err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := db.TruncateChunks(ctx, dbInstance); err != nil {
			return nil, fmt.Errorf("clear stale chunks: %w", err)
		}
		return db.NewBuilder(dbInstance, embedder), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

func (a *app) uploadFile(ctx context.Context, s *session.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := a.orchestrator.Upload(ctx, s, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	log.Info().
		Str("file", res.Document.Name).
		Bool("reused", res.Reused).
		Int("chunks", res.Document.Stats.Chunks).
		Msg("Document loaded")
	return nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing resource")
		}
	}
}
