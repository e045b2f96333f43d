package folder

import (
	"time"

	"github.com/google/uuid"
)

// Folder is one node of an owner's folder tree. The materialized path is
// written once at creation together with parent_id; folders never move.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"created_at"`
}

// Listing describes a folder together with the names it contains.
type Listing struct {
	Folder     Folder   `json:"folder"`
	Subfolders []string `json:"subfolders"`
	Files      []string `json:"files"`
}
