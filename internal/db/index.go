package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

// Builder stores each built index as a group of rows in document_chunks
type Builder struct {
	db       *bun.DB
	embedder embeddings.Embedder
}

func NewBuilder(db *bun.DB, embedder embeddings.Embedder) *Builder {
	return &Builder{db: db, embedder: embedder}
}

type Index struct {
	mu       sync.RWMutex
	db       *bun.DB
	embedder embeddings.Embedder
	id       string
	count    int
	closed   bool
}

func (b *Builder) Build(ctx context.Context, chunks []models.Chunk) (models.VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyChunkSet
	}

	vectors, err := embedding.EmbedChunks(ctx, b.embedder, chunks)
	if err != nil {
		return nil, err
	}

	indexID := uuid.NewString()
	records := make([]ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = ChunkRecord{
			IndexID:    indexID,
			ChunkID:    chunk.ID,
			ChunkIndex: chunk.Index,
			Segment:    chunk.Segment,
			Page:       chunk.Page,
			Source:     chunk.Source,
			Content:    chunk.Content,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}
	if err := StoreChunks(ctx, b.db, records); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	log.Debug().Str("index_id", indexID).Int("chunks", len(chunks)).Msg("Built pgvector index")
	return &Index{db: b.db, embedder: b.embedder, id: indexID, count: len(chunks)}, nil
}

func (i *Index) Query(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if k <= 0 {
		k = models.DefaultTopK
	}

	queryEmbedding, err := i.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	records, err := SearchChunks(ctx, i.db, i.id, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	scored := make([]models.ScoredChunk, len(records))
	for n, r := range records {
		scored[n] = models.ScoredChunk{
			Chunk: models.Chunk{
				ID:      r.ChunkID,
				Index:   r.ChunkIndex,
				Content: r.Content,
				Segment: r.Segment,
				Page:    r.Page,
				Source:  r.Source,
			},
			Score: float32(1 - r.Distance),
		}
	}
	return scored, nil
}

func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0
	}
	return i.count
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return DeleteChunks(context.Background(), i.db, i.id)
}
