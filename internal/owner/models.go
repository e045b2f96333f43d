package owner

import (
	"time"

	"github.com/google/uuid"
)

// Owner is an authenticated tenant. Every folder, file and share link is
// scoped to exactly one owner.
type Owner struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token carries a signed access token and its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
