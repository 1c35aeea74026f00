// Package parse extracts structured graph payloads from free-text model
// responses. Models are asked to emit the graph as JSON in a fenced code
// block, but in practice reply in several formats; Extract normalizes
// them all and never fails; a response with no machine-readable payload
// simply yields a nil payload.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Separator is the turn delimiter the model is instructed to use between
// the payload and the narrative, and between transcript turns.
const Separator = "==="

// fencedJSON matches the first fenced code block (optionally tagged
// "json") containing a single JSON object or array.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")

// Extract splits a raw model response into a structured payload and the
// remaining narrative text.
//
// Priority order: a fenced JSON block wins; otherwise the text before
// the first separator is tried as bare JSON; otherwise the payload is
// nil and the narrative is the input unchanged. A fenced block that does
// not parse degrades to a nil payload with separators stripped; callers
// must treat nil as "no diagram update this turn", not as an error.
func Extract(text string) (json.RawMessage, string) {
	match := fencedJSON.FindStringSubmatchIndex(text)
	if match == nil {
		return extractBeforeSeparator(text)
	}

	block := strings.TrimSpace(text[match[2]:match[3]])
	if !json.Valid([]byte(block)) {
		return nil, strings.ReplaceAll(text, Separator, "")
	}

	narrative := text[:match[0]] + text[match[1]:]
	return json.RawMessage(block), narrative
}

// extractBeforeSeparator handles responses that lead with bare JSON
// followed by a separator instead of a fenced block.
func extractBeforeSeparator(text string) (json.RawMessage, string) {
	before, _, _ := strings.Cut(text, Separator)
	trimmed := strings.TrimSpace(before)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return nil, text
	}
	return json.RawMessage(trimmed), strings.Replace(text, before, "", 1)
}
