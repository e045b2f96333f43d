package share

import (
	"time"

	"github.com/google/uuid"
)

// Link is a single-use, time-limited public pointer to one file. A file has
// at most one live link; issuing a new one supersedes the old.
type Link struct {
	Token     string    `json:"token"`
	FileID    uuid.UUID `json:"file_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
