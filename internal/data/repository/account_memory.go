package repository

import (
	"context"
	"sync"
	"time"

	"pesa-smart-plan/internal/data/entity"

	"github.com/google/uuid"
)

type emailKindKey struct {
	email string
	kind  entity.AccountKind
}

type memoryAccountRepository struct {
	mu          sync.RWMutex
	accounts    map[uuid.UUID]*entity.Account
	byEmailKind map[emailKindKey]uuid.UUID
	order       []uuid.UUID
}

func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		accounts:    make(map[uuid.UUID]*entity.Account),
		byEmailKind: make(map[emailKindKey]uuid.UUID),
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *entity.Account) error {
	key := emailKindKey{email: entity.NormalizeEmail(account.Email), kind: account.Kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmailKind[key]; ok {
		return ErrDuplicateAccount
	}

	cp := *account
	r.accounts[cp.ID] = &cp
	r.byEmailKind[key] = cp.ID
	r.order = append(r.order, cp.ID)
	return nil
}

func (r *memoryAccountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memoryAccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	all, err := r.FindAllByEmail(ctx, email)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memoryAccountRepository) FindAllByEmail(_ context.Context, email string) ([]*entity.Account, error) {
	email = entity.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	// order is insertion order, which is creation order.
	var out []*entity.Account
	for _, id := range r.order {
		a := r.accounts[id]
		if entity.NormalizeEmail(a.Email) == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryAccountRepository) FindByEmailAndKind(_ context.Context, email string, kind entity.AccountKind) (*entity.Account, error) {
	key := emailKindKey{email: entity.NormalizeEmail(email), kind: kind}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmailKind[key]
	if !ok {
		return nil, nil
	}
	cp := *r.accounts[id]
	return &cp, nil
}

func (r *memoryAccountRepository) EmailExists(_ context.Context, email string) (bool, error) {
	email = entity.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for key := range r.byEmailKind {
		if key.email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAccountRepository) PhoneExists(_ context.Context, phone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if phone != "" && a.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAccountRepository) MarkVerified(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return false, nil
	}
	a.IsVerified = true
	a.VerifiedEmail = true
	a.VerifiedPhone = true
	if a.VerifiedAt == nil {
		verifiedAt := at
		a.VerifiedAt = &verifiedAt
	}
	a.UpdatedAt = at
	return true, nil
}
