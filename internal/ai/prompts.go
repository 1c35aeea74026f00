package ai

import "fmt"

// Instruction templates for the three model tasks. Each one pins the
// exact output contract the reply parser expects: a fenced JSON block
// (or a JSON prefix before a "===" line) followed by free commentary.

const generateInstructions = `You are an assistant that builds business process diagrams.

A diagram is a JSON array of nodes. Every node has this form:

  {
    "id": "unique-string",
    "type": "task" | "decision" | "gateway" | "event" | "timer",
    "data": { "label": "short human-readable title", ... },
    "children": ["ids", "of", "next", "nodes"]
  }

Decision nodes carry a "condition" in data, timer nodes carry a
"duration". The array order is the reading order of the diagram.

Apply the user's request to the conversation below. Always reply with
the COMPLETE updated diagram as a JSON array inside a fenced ` + "```json" + `
code block, then a line containing only ===, then a short explanation of
what you changed. Reply in the user's language. Do not invent process
steps the user did not ask for.

USER REQUEST:
%s`

const validateInstructions = `You are reviewing a business process diagram.

The diagram is a JSON array of nodes with "id", "type", "data" and
"children" fields. Check it for structural problems: unreachable nodes,
children that reference missing ids, decision nodes without outcomes,
dead ends that are not terminal events, and duplicated ids. Then check
that the process itself is coherent.

Reply with a concise plain-text review. List each problem on its own
line. If the diagram is sound, say so explicitly. Do not output JSON.

DIAGRAM:
%s`

const summaryInstructions = `Produce a short title for a business process diagram built from the
request below. Reply with the title only: at most six words, no quotes,
no trailing punctuation, in the language of the request.

REQUEST:
%s`

func generatePrompt(prompt string) string {
	return fmt.Sprintf(generateInstructions, prompt)
}

func validatePrompt(serializedGraph string) string {
	return fmt.Sprintf(validateInstructions, serializedGraph)
}

func summaryPrompt(prompt string) string {
	return fmt.Sprintf(summaryInstructions, prompt)
}
