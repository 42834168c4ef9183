// Package session drives one user's document and conversation through the
// upload, ask and reset operations.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

type State string

const (
	StateIdle            State = "idle"
	StateDocumentLoading State = "document_loading"
	StateReady           State = "ready"
	StateAnswering       State = "answering"
)

// Session is the explicit per-user context every orchestrator operation
// receives. Only one operation runs on a session at a time (op); mu guards
// the fields and is never held across extraction or model calls, so
// readers see document_loading and answering while they last.
type Session struct {
	ID        string
	CreatedAt time.Time

	op sync.Mutex

	mu       sync.Mutex
	closed   bool
	state    State
	document *models.Document
	index    models.VectorIndex
	history  []models.ChatMessage
	pending  string
}

func New(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		state:     StateIdle,
	}
}

// Snapshot is a point-in-time copy of a session, safe to hand out
type Snapshot struct {
	ID       string               `json:"id"`
	State    State                `json:"state"`
	Document *models.Document     `json:"document,omitempty"`
	Chunks   int                  `json:"chunks"`
	Pending  string               `json:"pending,omitempty"`
	History  []models.ChatMessage `json:"history"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:      s.ID,
		State:   s.state,
		Pending: s.pending,
		History: append([]models.ChatMessage(nil), s.history...),
	}
	if s.document != nil {
		doc := *s.document
		snap.Document = &doc
	}
	if s.index != nil {
		snap.Chunks = s.index.Count()
	}
	return snap
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// close releases the index and marks the session as gone. An upload still
// in flight discards the index it builds.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closeIndex()
}

// closeIndex must be called with mu held
func (s *Session) closeIndex() {
	if s.index == nil {
		return
	}
	if err := s.index.Close(); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("Failed to close index")
	}
	s.index = nil
}

// restingState is where a session settles after an operation
func (s *Session) restingState() State {
	if s.index != nil {
		return StateReady
	}
	return StateIdle
}
