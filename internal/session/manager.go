package session

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

// Manager keeps the most recently used sessions. Evicted sessions release
// their index.
type Manager struct {
	sessions *lru.Cache[string, *Session]
}

func NewManager(maxSessions int) (*Manager, error) {
	cache, err := lru.NewWithEvict(maxSessions, func(id string, s *Session) {
		log.Debug().Str("session", id).Msg("Session evicted")
		s.close()
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Manager{sessions: cache}, nil
}

func (m *Manager) Create() (*Session, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := New(id)
	m.sessions.Add(id, s)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes the session and releases its index
func (m *Manager) Delete(id string) bool {
	return m.sessions.Remove(id)
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
