package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xaenox/rateai/internal/models"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string][]byte),
	}
}

// LoadSession returns a fresh copy so callers can mutate it freely.
func (s *MemoryStorage) LoadSession(ctx context.Context, key string) (*models.Session, error) {
	s.mu.RLock()
	raw, exists := s.sessions[key]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}
	return decodeSession(raw)
}

func (s *MemoryStorage) SaveSession(ctx context.Context, key string, session *models.Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = raw
	return nil
}

func (s *MemoryStorage) ClearSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func encodeSession(session *models.Session) ([]byte, error) {
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("error encoding session: %w", err)
	}
	return raw, nil
}

func decodeSession(raw []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("error decoding session: %w", err)
	}
	session.Activity.Normalize()
	return &session, nil
}
