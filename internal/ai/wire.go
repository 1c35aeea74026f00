package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowsketch/flowsketch/internal/config"
	"github.com/flowsketch/flowsketch/internal/diagram"
	"github.com/flowsketch/flowsketch/internal/parse"
)

// promptRequest is the single-prompt wire shape. The whole conversation
// is rendered into one text blob; streaming stays off because replies
// are parsed as a whole.
type promptRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type promptResponse struct {
	Response string `json:"response"`
}

// chatTemperature matches what the upstream chat deployments are tuned
// for.
const chatTemperature = 0.7

// buildGenerateBody marshals the request for the given wire shape. The
// prompt shape flattens history into the prompt text; the chat shape
// carries it as structured messages.
func buildGenerateBody(shape, model, prompt string, history []diagram.Message) ([]byte, error) {
	switch shape {
	case config.ShapeChat:
		return json.Marshal(openai.ChatCompletionRequest{
			Model:       model,
			Messages:    chatMessages(prompt, history),
			Temperature: chatTemperature,
			MaxTokens:   -1,
		})
	case config.ShapePrompt:
		return json.Marshal(promptRequest{
			Model:  model,
			Prompt: renderTranscript(prompt, history),
			Stream: false,
		})
	default:
		return nil, fmt.Errorf("unknown wire shape %q", shape)
	}
}

// renderTranscript flattens the instruction and prior turns into one
// prompt. Each turn reads "role: <payload>===<narrative>" and turns are
// joined with separator lines, mirroring how replies are parsed back.
func renderTranscript(prompt string, history []diagram.Message) string {
	if len(history) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n" + parse.Separator + "\nMESSAGE HISTORY:\n")
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n" + parse.Separator + "\n")
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		if msg.HasData() {
			b.Write(msg.Data)
		}
		b.WriteString(parse.Separator)
		b.WriteString(msg.Content)
	}
	return b.String()
}

// chatMessages maps stored turns onto chat roles, keeping the payload
// and narrative of each turn in the same separator form used elsewhere.
// The instruction goes last as the new user turn.
func chatMessages(prompt string, history []diagram.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, msg := range history {
		var b strings.Builder
		if msg.HasData() {
			b.Write(msg.Data)
		}
		b.WriteString("\n" + parse.Separator + "\n")
		b.WriteString(msg.Content)
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: b.String(),
		})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

// extractContent pulls the generated text out of an upstream response
// body for the given wire shape.
func extractContent(shape string, body []byte) (string, error) {
	switch shape {
	case config.ShapeChat:
		var resp openai.ChatCompletionResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: decoding chat response: %w", ErrUpstream, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: chat response has no choices", ErrUpstream)
		}
		return resp.Choices[0].Message.Content, nil
	case config.ShapePrompt:
		var resp promptResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
		}
		return resp.Response, nil
	default:
		return "", fmt.Errorf("unknown wire shape %q", shape)
	}
}
