package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
)

// CachedEmbedder memoizes EmbedQuery results. Document embeddings pass
// straight through since each document is embedded once per upload.
type CachedEmbedder struct {
	embeddings.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner embeddings.Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{Embedder: inner, cache: cache}, nil
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v, nil
	}
	v, err := c.Embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}
