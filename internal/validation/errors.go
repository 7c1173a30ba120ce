package validation

import "errors"

// ErrInvalidInput is the root of every validation failure.
// Messages wrapped around it are safe to show to the user verbatim.
var ErrInvalidInput = errors.New("invalid input")
