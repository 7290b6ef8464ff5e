package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrLockHeld means another request holds the host lock.
	ErrLockHeld = errors.New("host lock is held by another request")

	ErrAlreadyMarked = errors.New("appointment watermark already set")
)
