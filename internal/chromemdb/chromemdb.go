package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

const collectionName = "document"

// Builder creates a fresh in-memory chromem collection per document
type Builder struct {
	embedder embeddings.Embedder
}

func NewBuilder(embedder embeddings.Embedder) *Builder {
	return &Builder{embedder: embedder}
}

// Index is an in-memory vector index over one document's chunks
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	chunks     map[string]models.Chunk
}

func (b *Builder) Build(ctx context.Context, chunks []models.Chunk) (models.VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyChunkSet
	}

	vectors, err := embedding.EmbedChunks(ctx, b.embedder, chunks)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, b.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}

	docs := make([]chromem.Document, len(chunks))
	byID := make(map[string]models.Chunk, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Metadata:  createMetadata(chunk),
			Embedding: vectors[i],
		}
		byID[chunk.ID] = chunk
	}
	if len(byID) != len(chunks) {
		return nil, fmt.Errorf("duplicate chunk ids: %d unique for %d chunks", len(byID), len(chunks))
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %v", err)
	}

	log.Debug().Int("chunks", len(chunks)).Msg("Built in-memory vector index")
	return &Index{db: db, collection: collection, chunks: byID}, nil
}

func (b *Builder) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return b.embedder.EmbedQuery(ctx, text)
	}
}

func (i *Index) Query(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.collection == nil {
		return nil, fmt.Errorf("index is closed")
	}

	if k <= 0 {
		k = models.DefaultTopK
	}
	// chromem rejects nResults larger than the collection
	n := min(k, i.collection.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := i.collection.Query(ctx, question, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk, ok := i.chunks[r.ID]
		if !ok {
			continue
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: r.Similarity})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	return scored, nil
}

func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.collection == nil {
		return 0
	}
	return i.collection.Count()
}

// Close drops the collection; the index cannot be queried afterwards
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.collection == nil {
		return nil
	}
	err := i.db.DeleteCollection(collectionName)
	i.collection = nil
	i.chunks = nil
	if err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}

// meta data will have source, page number, chunk index
func createMetadata(chunk models.Chunk) map[string]string {
	return map[string]string{
		"source":  chunk.Source,
		"page":    strconv.Itoa(chunk.Page),
		"segment": strconv.Itoa(chunk.Segment),
		"index":   strconv.Itoa(chunk.Index),
	}
}
