package crosswalk

import "errors"

// Sentinel kinds for crosswalk errors.
var (
	ErrUnknownClassification = errors.New("unknown classification")
	ErrInvalidCode           = errors.New("invalid occupation code")
	ErrUnsupportedCrosswalk  = errors.New("crosswalk unsupported")
)
