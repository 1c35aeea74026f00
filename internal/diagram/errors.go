package diagram

import "errors"

// Sentinel errors shared between the store, the engine and the HTTP
// layer. Check with errors.Is().
var (
	// ErrNotFound indicates the diagram or message does not exist, or a
	// message does not belong to the requested diagram.
	ErrNotFound = errors.New("diagram: not found")

	// ErrNoSnapshot indicates a message carries no graph payload and so
	// cannot act as a version.
	ErrNoSnapshot = errors.New("diagram: message has no graph snapshot")

	// ErrInvalidSnapshot indicates a stored payload fails the graph
	// validity rule and must not be restored.
	ErrInvalidSnapshot = errors.New("diagram: snapshot is not a valid graph")
)
