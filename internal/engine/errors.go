package engine

import "errors"

var (
	// ErrInvalidRequest reports a request the engine refuses to act on,
	// such as an empty prompt or a validation call on a diagram that has
	// no graph yet.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrGenerationFailed reports a model call that failed after the
	// incoming message was already persisted. The conversation log holds
	// a synthetic assistant turn describing the failure.
	ErrGenerationFailed = errors.New("diagram generation failed")

	// ErrValidationFailed reports a validation run that produced no
	// verdict.
	ErrValidationFailed = errors.New("diagram validation failed")
)
