package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrUnknownPersona  = errors.New("unknown persona")
	ErrProviderFailure = errors.New("provider failure")
)
