package domain

import "errors"

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is;
// lower layers wrap them with fmt.Errorf("%w: ...") for context.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("not allowed")
	ErrConflict         = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)
