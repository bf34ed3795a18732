package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"pesa-smart-plan/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(email string, kind entity.AccountKind, createdAt time.Time) *entity.Account {
	a := &entity.Account{
		Email: email,
		Phone: "+254712345678",
		Name:  "Jane Doe",
		Kind:  kind,
	}
	a.ID = uuid.New()
	a.CreatedAt = createdAt
	a.UpdatedAt = createdAt
	return a
}

func TestMemoryAccountRepository_CreateRejectsDuplicateIgnoringCase(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, newAccount("a@x.com", entity.KindCustomer, now)))

	err := repo.Create(ctx, newAccount("A@X.COM", entity.KindCustomer, now))
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	found, err := repo.FindByEmailAndKind(ctx, "A@x.Com", entity.KindCustomer)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a@x.com", found.Email)
}

func TestMemoryAccountRepository_SameEmailBothKinds(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	t0 := time.Now()

	customer := newAccount("a@x.com", entity.KindCustomer, t0)
	business := newAccount("a@x.com", entity.KindBusiness, t0.Add(time.Second))
	require.NoError(t, repo.Create(ctx, customer))
	require.NoError(t, repo.Create(ctx, business))

	all, err := repo.FindAllByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, customer.ID, all[0].ID)
	assert.Equal(t, business.ID, all[1].ID)

	first, err := repo.FindByEmail(ctx, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, first.ID)
}

func TestMemoryAccountRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	a := newAccount("a@x.com", entity.KindCustomer, time.Now())
	require.NoError(t, repo.Create(ctx, a))

	t.Run("email exists is case-insensitive", func(t *testing.T) {
		ok, err := repo.EmailExists(ctx, "A@X.COM")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.EmailExists(ctx, "b@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("phone exists", func(t *testing.T) {
		ok, err := repo.PhoneExists(ctx, "+254712345678")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.PhoneExists(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("returned account is a copy", func(t *testing.T) {
		found, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		found.Name = "changed"

		again, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", again.Name)
	})
}

func TestMemoryAccountRepository_MarkVerified(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	a := newAccount("a@x.com", entity.KindCustomer, time.Now())
	require.NoError(t, repo.Create(ctx, a))

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ok, err := repo.MarkVerified(ctx, a.ID, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkVerified(ctx, a.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, found.IsVerified)
	assert.True(t, found.VerifiedEmail)
	assert.True(t, found.VerifiedPhone)
	require.NotNil(t, found.VerifiedAt)
	assert.Equal(t, first, *found.VerifiedAt)

	ok, err = repo.MarkVerified(ctx, uuid.New(), first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryAccountRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	now := time.Now()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newAccount("race@x.com", entity.KindBusiness, now))
		}()
	}
	wg.Wait()
	close(errs)

	var created, dup int
	for err := range errs {
		switch err {
		case nil:
			created++
		case ErrDuplicateAccount:
			dup++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, dup)
}
