package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileStatus represents the processing status of a file
type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusCompleted  FileStatus = "completed"
	StatusError      FileStatus = "error"
)

// Terminal reports whether no further transition is expected.
func (s FileStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Status only advances; "error" is reachable from any
// non-terminal state.
func (s FileStatus) CanTransition(next FileStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted
	}
	return false
}

// File represents a file metadata record. The bytes themselves live in
// object storage under ObjectKey; this row never carries content.
type File struct {
	ID        uuid.UUID  `json:"id"`
	FolderID  *uuid.UUID `json:"folder_id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Filename  string     `json:"filename"`
	MimeType  string     `json:"mime_type"`
	Size      int64      `json:"size"`
	Checksum  *string    `json:"checksum,omitempty"`
	ObjectKey string     `json:"object_key"`
	Status    FileStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ObjectKey derives the storage key for a file: owner/year/month/id/filename.
// Bucketing by owner and month keeps keys collision-free and lets the store
// apply per-prefix lifecycle rules.
func ObjectKey(ownerID, fileID uuid.UUID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%s/%s", ownerID, now.Year(), int(now.Month()), fileID, filename)
}

// ProcessingResult is what a downstream stage reports back once it has
// finished (or failed) working on a file. Nil fields leave the stored
// metadata untouched, so stages reporting different facets do not clobber
// each other.
type ProcessingResult struct {
	FileID      uuid.UUID  `json:"file_id"`
	Status      FileStatus `json:"status"`
	DocType     *string    `json:"doc_type,omitempty"`
	ChunksCount *int       `json:"chunks_count,omitempty"`
	Indexed     *bool      `json:"indexed,omitempty"`
}

// ProcessingInfo is the read-only status projection clients poll. The
// doc_type/chunks_count/indexed fields are filled in by downstream stages
// and stay nil until a stage reports back.
type ProcessingInfo struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	Status      FileStatus `json:"status"`
	DocType     *string    `json:"doc_type,omitempty"`
	ChunksCount *int       `json:"chunks_count,omitempty"`
	Indexed     *bool      `json:"indexed,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
