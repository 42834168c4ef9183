// Package chunker splits extracted text into overlapping chunks for embedding.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"document-qa/internal/models"
)

const (
	DefaultChunkSize    = 1000 // characters
	DefaultChunkOverlap = 150  // characters
)

// DefaultSeparators are tried in order: paragraph, line, word, character
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
}

// New returns a recursive character chunker. Zero values fall back to the
// defaults; overlap must stay below size.
func New(size, overlap int) (*Chunker, error) {
	if size == 0 {
		size = DefaultChunkSize
	}
	if size < 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", overlap, size)
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(DefaultSeparators),
		),
	}, nil
}

// Chunk splits every segment independently. Chunk IDs derive from position
// and content, so the same segments always produce the same chunks.
func (c *Chunker) Chunk(segments []models.TextSegment) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for si, segment := range segments {
		if strings.TrimSpace(segment.Content) == "" {
			continue
		}
		pieces, err := c.splitter.SplitText(segment.Content)
		if err != nil {
			return nil, fmt.Errorf("chunk: split segment %d: %w", si, err)
		}
		for _, piece := range pieces {
			text := strings.TrimSpace(piece)
			if text == "" {
				continue
			}
			index := len(chunks)
			chunks = append(chunks, models.Chunk{
				ID:      chunkID(si, index, text),
				Index:   index,
				Content: text,
				Segment: si,
				Page:    segment.Page,
				Source:  segment.Source,
			})
		}
	}
	return chunks, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

func chunkID(segment, index int, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d::%d::%s", segment, index, text)))
	return hex.EncodeToString(sum[:16])
}
