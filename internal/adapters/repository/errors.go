package repository

import "errors"

// Sentinel kinds for parameter store errors.
var (
	ErrNotFound      = errors.New("gamma parameters not found")
	ErrInvalidParams = errors.New("invalid gamma parameters")
)
