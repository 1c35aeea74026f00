package diagram

import (
	"bytes"
	"encoding/json"
)

// EmptyGraph is the payload stored when a diagram is created without any
// generated graph. Kept permissive: an empty object, not null.
var EmptyGraph = json.RawMessage(`{}`)

var nullLiteral = []byte("null")

// IsValidGraph reports whether raw holds a restorable graph payload:
// a non-empty JSON array whose first element has non-null id, type and
// data. Anything else (null, an object, an empty array, an array of
// malformed nodes) must not become a diagram's current graph through
// the restore path.
func IsValidGraph(raw json.RawMessage) bool {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), nullLiteral) {
		return false
	}

	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return false
	}
	if len(nodes) == 0 {
		return false
	}

	first := nodes[0]
	if first.ID == "" || first.Type == "" {
		return false
	}
	if len(first.Data) == 0 || bytes.Equal(bytes.TrimSpace(first.Data), nullLiteral) {
		return false
	}
	return true
}
