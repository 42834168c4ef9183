package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"document-qa/internal/chunker"
	"document-qa/internal/helper"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

// AnswerGenerator produces an answer from a question and retrieved chunks.
// No chunks means no document context.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []models.ScoredChunk) (string, error)
}

type Orchestrator struct {
	extractor parser.Parser
	chunker   *chunker.Chunker
	builder   models.IndexBuilder
	generator AnswerGenerator
	topK      int
}

func NewOrchestrator(extractor parser.Parser, chunker *chunker.Chunker, builder models.IndexBuilder, generator AnswerGenerator, topK int) *Orchestrator {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &Orchestrator{
		extractor: extractor,
		chunker:   chunker,
		builder:   builder,
		generator: generator,
		topK:      topK,
	}
}

type UploadResult struct {
	Document *models.Document `json:"document"`
	Reused   bool             `json:"reused"`
	Duration time.Duration    `json:"duration"`
}

// Exchange is one question and the assistant message recorded for it.
// Err is set when the answer is an error message.
type Exchange struct {
	Question string               `json:"question"`
	Answer   string               `json:"answer"`
	Context  []models.ScoredChunk `json:"context,omitempty"`
	Err      error                `json:"-"`
}

// Upload replaces the session's document. Uploading the bytes of the loaded
// document again changes nothing. On failure the previous document and
// index stay in place.
func (o *Orchestrator) Upload(ctx context.Context, s *Session, name string, data []byte) (UploadResult, error) {
	start := time.Now()
	ext := parser.Ext(name)
	if !models.IsSupportedExtension(ext) {
		return UploadResult{}, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	hash := helper.HashContent(data)

	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return UploadResult{}, fmt.Errorf("%w: %s", ErrSessionClosed, s.ID)
	}
	if s.document != nil && s.document.Hash == hash {
		doc := *s.document
		s.mu.Unlock()
		log.Debug().Str("session", s.ID).Str("file", name).Msg("Document unchanged, keeping index")
		return UploadResult{Document: &doc, Reused: true, Duration: time.Since(start)}, nil
	}
	s.state = StateDocumentLoading
	s.mu.Unlock()

	doc, index, err := o.ingest(ctx, name, ext, hash, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = s.restingState()
		log.Error().Err(err).Str("session", s.ID).Str("file", name).Msg("Upload failed")
		return UploadResult{}, err
	}
	if s.closed {
		if closeErr := index.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("session", s.ID).Msg("Failed to close index")
		}
		s.state = s.restingState()
		return UploadResult{}, fmt.Errorf("%w: %s", ErrSessionClosed, s.ID)
	}

	s.closeIndex()
	s.document = doc
	s.index = index
	s.state = StateReady

	log.Info().
		Str("session", s.ID).
		Str("file", name).
		Int("pages", doc.Stats.Pages).
		Int("chunks", doc.Stats.Chunks).
		Dur("took", time.Since(start)).
		Msg("Document indexed")

	out := *doc
	return UploadResult{Document: &out, Duration: time.Since(start)}, nil
}

func (o *Orchestrator) ingest(ctx context.Context, name, ext, hash string, data []byte) (*models.Document, models.VectorIndex, error) {
	segments, err := o.extractor.Extract(ctx, name, data)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := o.chunker.Chunk(segments)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return nil, nil, models.ErrEmptyChunkSet
	}
	index, err := o.builder.Build(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	doc := &models.Document{
		Name:     name,
		Ext:      ext,
		MIME:     parser.DetectMIME(data),
		Hash:     hash,
		Segments: segments,
		Stats:    documentStats(segments, len(chunks)),
	}
	return doc, index, nil
}

// Ask records the question, answers it and records the answer. Failures
// become the assistant message and never end the session.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, question string) Exchange {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	s.history = append(s.history, models.NewUserMessage(question))
	s.pending = question
	s.state = StateAnswering
	index := s.index
	s.mu.Unlock()

	ex := Exchange{Question: question}
	answer, retrieved, err := o.answer(ctx, s.ID, index, question)
	ex.Context = retrieved
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("Answer failed")
		ex.Err = err
		answer = models.ErrorAnswerPrefix + err.Error()
	}
	ex.Answer = answer

	s.mu.Lock()
	s.history = append(s.history, models.NewAssistantMessage(answer))
	s.pending = ""
	s.state = s.restingState()
	s.mu.Unlock()
	return ex
}

func (o *Orchestrator) answer(ctx context.Context, sessionID string, index models.VectorIndex, question string) (string, []models.ScoredChunk, error) {
	var retrieved []models.ScoredChunk
	if index != nil {
		var err error
		retrieved, err = index.Query(ctx, question, o.topK)
		if err != nil {
			return "", nil, fmt.Errorf("%w: retrieve context: %v", models.ErrGeneration, err)
		}
		log.Debug().Str("session", sessionID).Int("hits", len(retrieved)).Msg("Retrieved context")
	}
	answer, err := o.generator.Generate(ctx, question, retrieved)
	return answer, retrieved, err
}

// Reset drops the document, the index and the conversation
func (o *Orchestrator) Reset(s *Session) {
	s.op.Lock()
	defer s.op.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeIndex()
	s.document = nil
	s.history = nil
	s.pending = ""
	s.state = StateIdle
	log.Debug().Str("session", s.ID).Msg("Session reset")
}

func documentStats(segments []models.TextSegment, chunks int) models.DocumentStats {
	stats := models.DocumentStats{Chunks: chunks}
	pages := make(map[int]struct{})
	for _, segment := range segments {
		stats.Words += helper.CountWords(segment.Content)
		if segment.Page > 0 {
			pages[segment.Page] = struct{}{}
		}
	}
	stats.Pages = len(pages)
	if stats.Pages == 0 && len(segments) > 0 {
		stats.Pages = 1
	}
	return stats
}
