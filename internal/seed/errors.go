package seed

import "errors"

// Error constants.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrSeed          = errors.New("seed failed")
)
