package auth

import (
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an account and starts its trial.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=120"`
}

// RefreshRequest exchanges a refresh token for a new pair. AccessToken may be expired.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is returned by every call that opens or rotates a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse contains the tokens and user produced by login or register.
type AuthResponse struct {
	TokenPair
	User         *users.Profile      `json:"user"`
	Subscription *subscriptions.Info `json:"subscription,omitempty"`
}
