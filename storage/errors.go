package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned by every journal backend for a missing key or
	// sequence number, in place of the backend's own not-found error.
	ErrNotFound = errors.New("key not found")

	ErrAlreadyExists = errors.New("key already exists")
)
