package models

import "errors"

// ErrInvalidInput marks validation failures on operator or user input.
// Handlers translate it to a 400 response.
var ErrInvalidInput = errors.New("invalid input")
