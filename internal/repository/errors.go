package repository

import "errors"

var (
	// ErrRecordNotFound is returned when no image record has the requested id.
	ErrRecordNotFound = errors.New("image record not found")
	// ErrDuplicateID is returned by Append when a record with the same id is already stored.
	ErrDuplicateID = errors.New("image record id already exists")
)
