package ranking

import (
	"errors"
)

// Sentinel error kinds for ranking queries.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLimit = errors.New("invalid limit")
)
