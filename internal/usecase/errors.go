package usecase

import (
	"errors"
	"fmt"
	"time"

	"pesa-smart-plan/internal/data/entity"
)

var (
	// ErrInvalidCode covers a wrong, expired, already used or unknown code.
	// Callers must not be told which.
	ErrInvalidCode = errors.New("invalid or expired code")

	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrMalformedCode        = errors.New("verification code must be exactly 6 digits")
	ErrInvalidState         = errors.New("registration is not in a state that allows this action")
	ErrAccountNotFound      = errors.New("account not found")
	ErrSessionInvalid       = errors.New("session is invalid or expired")
)

type DuplicateAccountError struct {
	Email string
	Kind  entity.AccountKind
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("this email is already registered as a %s account", e.Kind)
}

// KindMismatchError is returned by login when the credentials belong to an
// account of the other kind.
type KindMismatchError struct {
	Requested entity.AccountKind
	Actual    entity.AccountKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("this email is registered as a %s account, please select the correct account type", e.Actual)
}

type CooldownError struct {
	Channel   entity.Channel
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	secs := int(e.Remaining.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("please wait %ds before requesting another %s code", secs, e.Channel)
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
