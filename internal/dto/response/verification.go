package response

import "time"

// CodeResult is the body of /api/send-code and /api/verify-code. Its shape is
// shared with existing web clients and does not use the Response envelope.
type CodeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResult struct {
	Error string `json:"error"`
}

type RegistrationResponse struct {
	ID          string               `json:"id"`
	State       string               `json:"state"`
	AccountID   string               `json:"account_id,omitempty"`
	AccountKind string               `json:"account_kind,omitempty"`
	Channel     string               `json:"channel,omitempty"`
	Contact     string               `json:"contact,omitempty"`
	ResendAfter map[string]time.Time `json:"resend_after,omitempty"`
	Error       string               `json:"error,omitempty"`
	Auth        *AuthResponse        `json:"auth,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type CooldownResponse struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
}
