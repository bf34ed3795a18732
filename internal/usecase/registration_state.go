package usecase

import (
	"maps"
	"sync"
	"time"

	"pesa-smart-plan/internal/data/entity"

	"github.com/google/uuid"
)

type StateKind string

const (
	StateIdle           StateKind = "idle"
	StateAccountCreated StateKind = "account_created"
	StateCodeSent       StateKind = "code_sent"
	StateVerifying      StateKind = "verifying"
	StateVerified       StateKind = "verified"
	StateFailed         StateKind = "failed"
)

// State is a registration attempt's current state. The concrete types below
// are the only implementations.
type State interface {
	Kind() StateKind
	sealed()
}

type Idle struct{}

type AccountCreated struct {
	AccountID uuid.UUID
}

// CodeSent records the channel of the latest code and, per channel, when a
// code was last issued.
type CodeSent struct {
	AccountID uuid.UUID
	Channel   entity.Channel
	Contact   string
	SentAt    map[entity.Channel]time.Time
}

// Verifying is CodeSent with a validation in flight.
type Verifying struct {
	CodeSent
}

type Verified struct {
	AccountID uuid.UUID
	Session   *entity.Session
}

type Failed struct {
	Err error
}

func (Idle) Kind() StateKind           { return StateIdle }
func (AccountCreated) Kind() StateKind { return StateAccountCreated }
func (CodeSent) Kind() StateKind       { return StateCodeSent }
func (Verifying) Kind() StateKind      { return StateVerifying }
func (Verified) Kind() StateKind       { return StateVerified }
func (Failed) Kind() StateKind         { return StateFailed }

func (Idle) sealed()           {}
func (AccountCreated) sealed() {}
func (CodeSent) sealed()       {}
func (Verifying) sealed()      {}
func (Verified) sealed()       {}
func (Failed) sealed()         {}

// withSent returns a copy of c with a code for channel issued at at. The
// SentAt map is never mutated in place so snapshots stay stable.
func (c CodeSent) withSent(channel entity.Channel, contact string, at time.Time) CodeSent {
	sent := make(map[entity.Channel]time.Time, len(c.SentAt)+1)
	maps.Copy(sent, c.SentAt)
	sent[channel] = at
	return CodeSent{AccountID: c.AccountID, Channel: channel, Contact: contact, SentAt: sent}
}

type Attempt struct {
	ID        uuid.UUID
	Email     string
	Phone     string
	Kind      entity.AccountKind
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactFor returns the address a code for channel is sent to.
func (a Attempt) ContactFor(channel entity.Channel) string {
	if channel == entity.ChannelPhone {
		return a.Phone
	}
	return a.Email
}

func (a Attempt) accountID() uuid.UUID {
	switch s := a.State.(type) {
	case AccountCreated:
		return s.AccountID
	case CodeSent:
		return s.AccountID
	case Verifying:
		return s.AccountID
	case Verified:
		return s.AccountID
	}
	return uuid.Nil
}

// attemptStore holds registration attempts for this process. Transitions run
// under one mutex so each is a compare-and-swap on the attempt's state.
type attemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*Attempt
}

func newAttemptStore() *attemptStore {
	return &attemptStore{attempts: make(map[uuid.UUID]*Attempt)}
}

func (s *attemptStore) put(a Attempt) {
	s.mu.Lock()
	s.attempts[a.ID] = &a
	s.mu.Unlock()
}

func (s *attemptStore) get(id uuid.UUID) (Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[id]
	if !ok {
		return Attempt{}, false
	}
	return *a, true
}

// transition applies fn to the current state. fn returns the next state or an
// error, in which case nothing changes.
func (s *attemptStore) transition(id uuid.UUID, at time.Time, fn func(a Attempt) (State, error)) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[id]
	if !ok {
		return Attempt{}, ErrRegistrationNotFound
	}

	next, err := fn(*a)
	if err != nil {
		return *a, err
	}
	a.State = next
	a.UpdatedAt = at
	return *a, nil
}

// prune drops attempts not touched since before, except those mid-verification.
func (s *attemptStore) prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, a := range s.attempts {
		if _, busy := a.State.(Verifying); busy {
			continue
		}
		if a.UpdatedAt.Before(before) {
			delete(s.attempts, id)
			n++
		}
	}
	return n
}

func (s *attemptStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}
