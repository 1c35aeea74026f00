package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsketch/flowsketch/internal/config"
	"github.com/flowsketch/flowsketch/internal/diagram"
)

func testConfig(primaryURL, altURL string) config.AI {
	return config.AI{
		Enabled:        true,
		DefaultModel:   "theonemarket",
		APIURL:         primaryURL,
		APIShape:       config.ShapePrompt,
		AltAPIURL:      altURL,
		AltAPIShape:    config.ShapeChat,
		ConnectTimeout: time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

func TestGeneratePromptShape(t *testing.T) {
	var got promptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply := promptResponse{Response: "```json\n[{\"id\":\"a\",\"type\":\"task\",\"data\":{\"label\":\"A\"},\"children\":[]}]\n```\nAdded step A."}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	history := []diagram.Message{
		{Role: diagram.RoleUser, Content: "draw a process"},
		{Role: diagram.RoleAssistant, Content: "done", Data: json.RawMessage(`[{"id":"x"}]`)},
	}

	result, err := client.Generate(context.Background(), "add step A", history, "")
	require.NoError(t, err)

	assert.Equal(t, "theonemarket", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, "add step A")
	assert.Contains(t, got.Prompt, "MESSAGE HISTORY:")
	assert.Contains(t, got.Prompt, `assistant: [{"id":"x"}]===done`)

	require.NotNil(t, result.Data)
	assert.True(t, diagram.IsValidGraph(result.Data))
	require.NotNil(t, result.Message)
	assert.Equal(t, diagram.RoleAssistant, result.Message.Role)
	assert.Equal(t, "Added step A.", result.Message.Content)
	assert.Equal(t, result.Data, result.Message.Data)
}

func TestGenerateChatShape(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: "[{\"id\":\"b\",\"type\":\"task\",\"data\":{\"label\":\"B\"},\"children\":[]}]\n===\nHere you go.",
				},
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	defer srv.Close()

	client := New(testConfig("http://unused.invalid", srv.URL), nil)
	history := []diagram.Message{{Role: diagram.RoleUser, Content: "start over"}}

	result, err := client.Generate(context.Background(), "add step B", history, "mistral")
	require.NoError(t, err)

	assert.Equal(t, "mistral", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "add step B")

	require.NotNil(t, result.Data)
	assert.Equal(t, "Here you go.", result.Message.Content)
}

func TestGenerateNarrativeOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reply := promptResponse{Response: "Could you clarify which step to remove?"}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	result, err := client.Generate(context.Background(), "remove it", nil, "")
	require.NoError(t, err)

	assert.Nil(t, result.Data)
	assert.Nil(t, result.Message.Data)
	assert.Equal(t, "Could you clarify which step to remove?", result.Message.Content)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	client := New(testConfig("http://unused.invalid", ""), nil)

	_, err := client.Generate(context.Background(), "   ", nil, "")
	assert.ErrorIs(t, err, ErrInvalidPrompt)
}

func TestGenerateDisabled(t *testing.T) {
	cfg := testConfig("http://unused.invalid", "")
	cfg.Enabled = false
	client := New(cfg, nil)

	result, err := client.Generate(context.Background(), "anything", nil, "")
	require.NoError(t, err)
	assert.True(t, diagram.IsValidGraph(result.Data))
	assert.Equal(t, diagram.RoleAssistant, result.Message.Role)
	assert.NotEmpty(t, result.Message.Content)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	_, err := client.Generate(context.Background(), "add step", nil, "")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestValidate(t *testing.T) {
	var got promptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply := promptResponse{Response: "Node \"b\" is unreachable."}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	verdict, err := client.Validate(context.Background(), `[{"id":"a"}]`, "")
	require.NoError(t, err)

	assert.Contains(t, got.Prompt, `[{"id":"a"}]`)
	assert.Equal(t, "Node \"b\" is unreachable.", verdict)
}

func TestValidateNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(promptResponse{Response: "  "}))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	_, err := client.Validate(context.Background(), `[{"id":"a"}]`, "")
	assert.ErrorIs(t, err, ErrNoValidationText)
}

func TestValidateEmptyGraph(t *testing.T) {
	client := New(testConfig("http://unused.invalid", ""), nil)
	_, err := client.Validate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidPrompt)
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req promptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "order fulfillment")
		require.NoError(t, json.NewEncoder(w).Encode(promptResponse{Response: "Order Fulfillment"}))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL, ""), nil)
	summary, err := client.Summarize(context.Background(), "diagram the order fulfillment process")
	require.NoError(t, err)
	assert.Equal(t, "Order Fulfillment", summary)
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck

		assert.Equal(t, "note.webm", header.Filename)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"text": "add a review step"}))
	}))
	defer srv.Close()

	cfg := testConfig("http://unused.invalid", "")
	cfg.TranscriptionURL = srv.URL
	client := New(cfg, nil)

	raw, err := client.Transcribe(context.Background(), strings.NewReader("fake-audio"), "note.webm", "audio/webm")
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "add a review step", decoded["text"])
}

func TestTranscribeNoEndpoint(t *testing.T) {
	client := New(testConfig("http://unused.invalid", ""), nil)
	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "audio/webm")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestTranscribeNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	cfg := testConfig("http://unused.invalid", "")
	cfg.TranscriptionURL = srv.URL
	client := New(cfg, nil)

	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "audio/webm")
	assert.ErrorIs(t, err, ErrUpstream)
}
