package domain

import "errors"

var (
	// ErrConfiguration marks fatal misconfiguration such as an embedding
	// dimension mismatch or a corrupt index. Not retryable.
	ErrConfiguration = errors.New("configuration error")

	// ErrModel marks an unavailable or failing embedding/generation backend.
	// Callers may recover (e.g. show a fallback message) but the core never
	// substitutes placeholder output for it.
	ErrModel = errors.New("model backend error")

	// ErrInvalidInput marks input rejected before any model or store work:
	// empty query text, non-positive k.
	ErrInvalidInput = errors.New("invalid input")
)
