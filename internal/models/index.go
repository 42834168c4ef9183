package models

import "context"

// DefaultTopK is the retrieval depth used when callers pass k <= 0
const DefaultTopK = 3

// VectorIndex answers similarity queries over the chunks of one document.
// It is immutable after Build; replacing the document means building a new one.
type VectorIndex interface {
	// Query returns at most k chunks ordered by non-increasing similarity
	Query(ctx context.Context, question string, k int) ([]ScoredChunk, error)
	Count() int
	Close() error
}

// IndexBuilder builds a VectorIndex. Building from no chunks fails with
// ErrEmptyChunkSet.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []Chunk) (VectorIndex, error)
}
