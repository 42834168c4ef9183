package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/cybertron"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

const queryCacheSize = 256

// NewEmbedder creates the embedder selected by cfg.Provider. Query
// embeddings are cached since users often repeat questions.
func NewEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]any{
		"provider":  cfg.Provider,
		"base_url":  cfg.BaseURL,
		"model":     cfg.Model,
		"dimension": cfg.Dimension,
	}).Msg("Creating embedder")

	var (
		embedder embeddings.Embedder
		err      error
	)
	switch cfg.Provider {
	case "", "local":
		embedder = NewHashEmbedder(cfg.Dimension)
	case "cybertron":
		embedder, err = newCybertronEmbedder(cfg)
	case "ollama":
		embedder, err = newOllamaEmbedder(cfg)
	case "openai":
		embedder, err = newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewCachedEmbedder(embedder, queryCacheSize)
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Key != "" {
		opts = append(opts, openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedder: %w", err)
	}
	return embedder, nil
}

func newOllamaEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}
	return embedder, nil
}

// newCybertronEmbedder runs a sentence-transformers model in process. The
// model is downloaded into ModelsDir on first use.
func newCybertronEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []cybertron.Option{cybertron.WithModel(cfg.Model)}
	if cfg.ModelsDir != "" {
		opts = append(opts, cybertron.WithModelsDir(cfg.ModelsDir))
	}
	client, err := cybertron.NewCybertron(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cybertron: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create cybertron embedder: %w", err)
	}
	return embedder, nil
}

// EmbedChunks embeds all chunk texts in one call and checks the result shape
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embed chunks: empty vector for chunk %d", i)
		}
	}
	return vectors, nil
}
