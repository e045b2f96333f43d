package file

import (
	"time"

	"github.com/google/uuid"
)

// File is the metadata row for one stored object. StorageKey addresses the
// bytes in the content store and is never exposed to callers.
type File struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	FolderID      uuid.UUID `json:"folder_id"`
	DisplayName   string    `json:"display_name"`
	StorageKey    string    `json:"-"`
	SizeBytes     int64     `json:"size_bytes"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}
