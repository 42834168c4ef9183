package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(0)

	t.Run("ShouldBeDeterministicAndFixedLength", func(t *testing.T) {
		a, err := e.EmbedQuery(ctx, "Revenue grew 10% in Q1.")
		require.NoError(t, err)
		b, err := e.EmbedQuery(ctx, "Revenue grew 10% in Q1.")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, DefaultDimension)
	})

	t.Run("ShouldBeUnitLength", func(t *testing.T) {
		v, err := e.EmbedQuery(ctx, "some words here")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, math.Sqrt(cosine(v, v)), 1e-5)
	})

	t.Run("ShouldNeverReturnZeroVector", func(t *testing.T) {
		v, err := e.EmbedQuery(ctx, "?!")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, cosine(v, v), 1e-6)
	})

	t.Run("ShouldRankRelatedTextHigher", func(t *testing.T) {
		docs, err := e.EmbedDocuments(ctx, []string{
			"Revenue grew 10% in Q1.",
			"The office cafeteria serves lunch at noon.",
		})
		require.NoError(t, err)
		q, err := e.EmbedQuery(ctx, "What was the revenue growth?")
		require.NoError(t, err)
		assert.Greater(t, cosine(q, docs[0]), cosine(q, docs[1]))
	})

	t.Run("ShouldHonourCancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.EmbedDocuments(cctx, []string{"a"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type countingEmbedder struct {
	*HashEmbedder
	queries int
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.queries++
	return c.HashEmbedder.EmbedQuery(ctx, text)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	a, err := cached.EmbedQuery(context.Background(), "same question")
	require.NoError(t, err)
	b, err := cached.EmbedQuery(context.Background(), "same question")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, inner.queries)

	docs, err := cached.EmbedDocuments(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestNewEmbedder(t *testing.T) {
	t.Run("ShouldBuildLocalEmbedderByDefault", func(t *testing.T) {
		e, err := NewEmbedder(&config.LLMConfig{Dimension: 32})
		require.NoError(t, err)
		v, err := e.EmbedQuery(context.Background(), "hello")
		require.NoError(t, err)
		assert.Len(t, v, 32)
	})

	t.Run("ShouldRejectUnknownProvider", func(t *testing.T) {
		_, err := NewEmbedder(&config.LLMConfig{Provider: "word2vec"})
		assert.Error(t, err)
	})
}

type brokenEmbedder struct{ *HashEmbedder }

func (b brokenEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func TestEmbedChunks(t *testing.T) {
	chunks := []models.Chunk{{Content: "one"}, {Content: "two"}}

	t.Run("ShouldEmbedEveryChunk", func(t *testing.T) {
		vectors, err := EmbedChunks(context.Background(), NewHashEmbedder(8), chunks)
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
	})

	t.Run("ShouldReturnNothingForNoChunks", func(t *testing.T) {
		vectors, err := EmbedChunks(context.Background(), NewHashEmbedder(8), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})

	t.Run("ShouldRejectShapeMismatch", func(t *testing.T) {
		_, err := EmbedChunks(context.Background(), brokenEmbedder{NewHashEmbedder(8)}, chunks)
		require.Error(t, err)
		assert.False(t, errors.Is(err, context.Canceled))
	})
}
