package ai

import (
	_ "embed"
	"encoding/json"

	"github.com/flowsketch/flowsketch/internal/diagram"
)

// exampleGraph is served when the AI integration is switched off, so
// the rest of the system can be exercised without a model endpoint.
//
//go:embed example_diagram.json
var exampleGraph []byte

const exampleNarrative = "AI generation is disabled, so here is an example diagram: " +
	"a support ticket flow with triage, a known-issue decision and an escalation path."

func exampleResult() *GenerateResult {
	data := json.RawMessage(exampleGraph)
	return &GenerateResult{
		Data: data,
		Message: &diagram.Message{
			Role:    diagram.RoleAssistant,
			Content: exampleNarrative,
			Data:    data,
		},
	}
}
