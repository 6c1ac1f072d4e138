package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and sanitized identity.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Account     AccountInfo `json:"account"`
}

// AccountInfo describes the authenticated account in responses. It is the
// sanitized identity: the password hash never crosses this boundary.
type AccountInfo struct {
	ID              int64       `json:"id"`
	Code            string      `json:"code"`
	FullName        string      `json:"full_name"`
	Email           string      `json:"email"`
	Role            AccountRole `json:"role"`
	InstitutionName string      `json:"institution_name,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID int64       `json:"account_id"`
	Code      string      `json:"code"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      AccountRole `json:"role"`
	jwt.RegisteredClaims
}
