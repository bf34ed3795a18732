package repository

import (
	"context"
	"sync"
	"time"

	"pesa-smart-plan/internal/data/entity"
)

type memoryCodeRepository struct {
	mu    sync.Mutex
	codes []*entity.VerificationCode
}

func NewMemoryCodeRepository() CodeRepository {
	return &memoryCodeRepository{}
}

func (r *memoryCodeRepository) Create(_ context.Context, code *entity.VerificationCode) error {
	cp := *code

	r.mu.Lock()
	r.codes = append(r.codes, &cp)
	r.mu.Unlock()
	return nil
}

// Consume scans newest first and flips used under the same lock it read with.
func (r *memoryCodeRepository) Consume(_ context.Context, contact string, channel entity.Channel, code string, now time.Time) (*entity.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Contact != contact || c.Channel != channel || c.Code != code {
			continue
		}
		if !c.Consumable(now) {
			continue
		}
		usedAt := now
		c.Used = true
		c.UsedAt = &usedAt
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryCodeRepository) InvalidateActive(_ context.Context, contact string, channel entity.Channel, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, c := range r.codes {
		if c.Contact == contact && c.Channel == channel && c.Consumable(now) {
			usedAt := now
			c.Used = true
			c.UsedAt = &usedAt
			n++
		}
	}
	return n, nil
}

func (r *memoryCodeRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.codes[:0]
	var n int64
	for _, c := range r.codes {
		if c.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(r.codes); i++ {
		r.codes[i] = nil
	}
	r.codes = kept
	return n, nil
}
