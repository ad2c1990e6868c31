package engine

import "errors"

// Client errors are rejected synchronously, before any book mutation.
var (
	ErrInvalidSymbol   = errors.New("engine: symbol not registered")
	ErrInvalidQuantity = errors.New("engine: quantity must be positive")
	ErrInvalidPrice    = errors.New("engine: price must be a positive tick within range")
)
