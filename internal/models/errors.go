package models

import "errors"

var (
	// ErrStoreUnavailable wraps any failure of the backing record store.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
)
