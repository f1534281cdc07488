package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidOwner  = errors.New("invalid profile owner")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrStorage       = errors.New("storage failure")
	ErrUnknownDriver = errors.New("unknown storage driver")
)
