package ai

import "errors"

var (
	// ErrInvalidPrompt reports an empty or blank prompt.
	ErrInvalidPrompt = errors.New("prompt is empty")

	// ErrUpstream reports a failed call to a model endpoint: transport
	// error, non-2xx status, or an unparsable response body.
	ErrUpstream = errors.New("model endpoint request failed")

	// ErrNoValidationText reports a validation reply without any usable
	// verdict text.
	ErrNoValidationText = errors.New("validation produced no text")
)
