package engine

import "errors"

// Session construction and lifecycle error types.
var (
	ErrEmptyText        = errors.New("reference text must not be empty")
	ErrInvalidTimeLimit = errors.New("time limit must be greater than zero")
	ErrInvalidMode      = errors.New("unknown backspace mode")
	ErrNotFinished      = errors.New("session has not finished")
)
