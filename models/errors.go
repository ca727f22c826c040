package models

import "errors"

// Shared error taxonomy. Repositories and services return these (wrapped);
// handlers translate them to HTTP status codes.
var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the record exists but its state forbids the
	// operation: completing an upload twice, deleting a non-empty folder.
	ErrConflict = errors.New("conflict")

	// ErrUpstream means an object-store or downstream-service call failed.
	ErrUpstream = errors.New("upstream failure")
)
