package response

import (
	"time"

	"pesa-smart-plan/internal/data/entity"
)

type AccountResponse struct {
	ID            string             `json:"id"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone"`
	Name          string             `json:"name"`
	AccountKind   entity.AccountKind `json:"account_kind"`
	BusinessName  *string            `json:"business_name,omitempty"`
	VerifiedEmail bool               `json:"verified_email"`
	VerifiedPhone bool               `json:"verified_phone"`
	IsVerified    bool               `json:"is_verified"`
	VerifiedAt    *time.Time         `json:"verified_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type AuthResponse struct {
	Account   AccountResponse `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func AccountToResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID.String(),
		Email:         a.Email,
		Phone:         a.Phone,
		Name:          a.Name,
		AccountKind:   a.Kind,
		BusinessName:  a.BusinessName,
		VerifiedEmail: a.VerifiedEmail,
		VerifiedPhone: a.VerifiedPhone,
		IsVerified:    a.IsVerified,
		VerifiedAt:    a.VerifiedAt,
		CreatedAt:     a.CreatedAt,
	}
}

func AuthToResponse(a *entity.Account, session *entity.Session) AuthResponse {
	resp := AuthResponse{Account: AccountToResponse(a)}
	if session != nil {
		resp.Token = session.Token.String()
		resp.ExpiresAt = session.ExpiresAt
	}
	return resp
}
