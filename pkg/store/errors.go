package store

import "errors"

var (
	// ErrNotFound reports that no record with the requested identifier
	// exists. Backends wrap it so callers can test with errors.Is.
	ErrNotFound = errors.New("store: record not found")

	// ErrNilBackend is returned by New when no backend is supplied.
	ErrNilBackend = errors.New("store: nil backend")

	// ErrDuplicateStore is returned by Registry.Add for an already
	// registered name.
	ErrDuplicateStore = errors.New("store: duplicate store name")

	// ErrUnknownStore is returned by Registry.Get for an unregistered name.
	ErrUnknownStore = errors.New("store: unknown store")
)
