package profile

import "errors"

// Sentinel kinds for profile resolution errors.
var (
	ErrResolve = errors.New("resolve profile failed")
)
