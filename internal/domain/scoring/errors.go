package scoring

import (
	"errors"
)

// ErrLoadTags marks a failure to read a profile's tags. It is retryable.
var ErrLoadTags = errors.New("load profile tags")
