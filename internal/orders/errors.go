package orders

import "errors"

// Business failures surfaced by the engine. Handlers map these onto HTTP
// statuses; anything else is treated as an internal error.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
)
