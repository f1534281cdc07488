package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrRunFailed = errors.New("scoring run failed")
)
