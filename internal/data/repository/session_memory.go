package repository

import (
	"context"
	"sync"
	"time"

	"pesa-smart-plan/internal/data/entity"
)

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*entity.Session)}
}

func (r *memorySessionRepository) Create(_ context.Context, session *entity.Session) error {
	cp := *session

	r.mu.Lock()
	r.sessions[cp.Token.String()] = &cp
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) FindValidSession(_ context.Context, token string, now time.Time) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok || !s.Active(now) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memorySessionRepository) Revoke(_ context.Context, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok || s.RevokedAt != nil {
		return ErrSessionNotFound
	}
	revokedAt := now
	s.RevokedAt = &revokedAt
	return nil
}

func (r *memorySessionRepository) CleanExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-sessionRetention)

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}
