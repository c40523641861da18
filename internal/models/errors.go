package models

import (
	"errors"
)

var (
	// Training-time failures. No artifact is written when these occur.
	ErrInvalidCorpus    = errors.New("invalid corpus")
	ErrInsufficientData = errors.New("insufficient data")

	// Inference-time failures.
	ErrNotFitted         = errors.New("component not fitted")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrArtifactLoad      = errors.New("artifact load failed")

	ErrValidation = errors.New("validation error")
)
