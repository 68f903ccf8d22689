// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Store error taxonomy. Repositories classify backend failures into exactly one
// of these so callers can match with errors.Is instead of inspecting driver errors.
var (
	// ErrNotFound indicates a fetch-one lookup matched no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique-constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrStoreTransient indicates a retriable store failure (connectivity loss,
	// serialization failure, deadlock). Retry policy belongs to the caller.
	ErrStoreTransient = errors.New("transient store error")

	// ErrStoreFatal indicates a non-retriable store failure.
	ErrStoreFatal = errors.New("fatal store error")

	// ErrUnauthorized indicates failed authentication on the API surface.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates a registration source that is temporarily blocked.
	ErrRateLimited = errors.New("rate limited")
)
