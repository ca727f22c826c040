package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder represents a folder entity. Folders form a single-parent forest per
// owner: ParentID nil means the folder sits at the root. Sibling names are
// not required to be unique.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}
