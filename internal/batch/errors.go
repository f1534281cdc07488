package batch

import (
	"errors"
)

// Sentinel error kinds for scoring runs.
var (
	ErrRunInProgress = errors.New("scoring run already in progress")
	ErrPendingPairs  = errors.New("list pending pairs")
)
