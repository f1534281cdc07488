package distance

import "errors"

// Sentinel kinds for distance errors.
var (
	// ErrInvalidInput marks programming or data errors: empty collections or
	// embeddings of different length. Never retried.
	ErrInvalidInput = errors.New("invalid input")
)
