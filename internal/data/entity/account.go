package entity

import (
	"strings"
	"time"
)

type AccountKind string

const (
	KindCustomer AccountKind = "customer"
	KindBusiness AccountKind = "business"
)

func (k AccountKind) Valid() bool {
	return k == KindCustomer || k == KindBusiness
}

type Account struct {
	BaseNoDelete
	Email         string      `db:"email"`
	Phone         string      `db:"phone"`
	Name          string      `db:"name"`
	Kind          AccountKind `db:"account_kind"`
	BusinessName  *string     `db:"business_name"`
	PasswordHash  string      `db:"password"`
	VerifiedEmail bool        `db:"verified_email"`
	VerifiedPhone bool        `db:"verified_phone"`
	IsVerified    bool        `db:"is_verified"`
	VerifiedAt    *time.Time  `db:"verified_at"`
}

// NormalizeEmail is the registry's comparison key for emails.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
