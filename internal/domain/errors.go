package domain

import "errors"

var (
	// ErrValidation signals bad input rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a uniqueness violation on insert.
	ErrConflict = errors.New("conflict")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrFile signals a rendition derivation or file storage failure.
	ErrFile = errors.New("file error")
	// ErrDatabase signals a storage adapter failure (non-operational, a bug signal).
	ErrDatabase = errors.New("database error")
	// ErrExternalService signals a similarity service failure (operational,
	// recoverable via the city fallback).
	ErrExternalService = errors.New("similarity service unavailable")
)
