package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
)

// Profile is the account view returned to clients; credentials never leave the service.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func ProfileOf(u *models.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// NewUser carries an already hashed password.
type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
}

func (n NewUser) model() *models.User {
	return &models.User{
		Email:        NormalizeEmail(n.Email),
		PasswordHash: n.PasswordHash,
		Name:         strings.TrimSpace(n.Name),
		IsActive:     true,
	}
}

// NormalizeEmail matches the form stored under the unique email index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
