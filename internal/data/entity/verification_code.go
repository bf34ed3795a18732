package entity

import (
	"strings"
	"time"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

type VerificationCode struct {
	BaseSimple
	Contact   string     `db:"contact"`
	Channel   Channel    `db:"channel"`
	Code      string     `db:"code"`
	ExpiresAt time.Time  `db:"expires_at"`
	Used      bool       `db:"used"`
	UsedAt    *time.Time `db:"used_at"`
}

// Consumable reports whether the code may still be used at now.
func (c *VerificationCode) Consumable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}

// NormalizeContact canonicalizes a contact for storage and lookup. Emails are
// case-insensitive, phone numbers are compared verbatim after trimming.
func NormalizeContact(channel Channel, contact string) string {
	if channel == ChannelEmail {
		return NormalizeEmail(contact)
	}
	return strings.TrimSpace(contact)
}
