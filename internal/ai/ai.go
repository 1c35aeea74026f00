// Package ai is the gateway to the generative model endpoints.
//
// It issues diagram generation, structural validation and summarization
// requests, normalizes the two supported upstream response shapes, and
// relays audio to the transcription service. Callers never see wire
// formats: the request shape is resolved per model from configuration.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/flowsketch/flowsketch/internal/config"
	"github.com/flowsketch/flowsketch/internal/diagram"
	"github.com/flowsketch/flowsketch/internal/parse"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 16 << 20

// Client calls the configured model endpoints. Safe for concurrent use.
type Client struct {
	cfg    config.AI
	http   *http.Client
	logger *slog.Logger
}

// New creates a gateway client. Model calls are slow; both the connect
// and the overall request timeouts come from configuration so a stalled
// upstream cannot hold a request goroutine forever.
func New(cfg config.AI, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// GenerateResult is the outcome of one generation turn. Data is nil when
// the model produced commentary without a machine-readable diagram.
type GenerateResult struct {
	Data    json.RawMessage
	Message *diagram.Message
}

// Generate sends the prompt plus rendered history to the model endpoint
// for the given model name and parses the structured payload out of the
// reply. With the integration disabled it returns the embedded example
// diagram instead of calling out.
func (c *Client) Generate(ctx context.Context, prompt string, history []diagram.Message, model string) (*GenerateResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrInvalidPrompt
	}

	if !c.cfg.Enabled {
		c.logger.Debug("AI integration disabled, serving example diagram")
		return exampleResult(), nil
	}

	url, shape := c.cfg.Endpoint(model)
	body, err := buildGenerateBody(shape, c.resolveModel(model), generatePrompt(prompt), history)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrUpstream, err)
	}

	raw, err := c.post(ctx, url, "application/json", body)
	if err != nil {
		return nil, err
	}

	content, err := extractContent(shape, raw)
	if err != nil {
		return nil, err
	}

	payload, narrative := parse.Extract(content)
	return &GenerateResult{
		Data: payload,
		Message: &diagram.Message{
			Role:    diagram.RoleAssistant,
			Content: tidyNarrative(narrative),
			Data:    payload,
		},
	}, nil
}

// tidyNarrative drops the separator remnant left where the payload was
// cut out of the reply, plus surrounding whitespace.
func tidyNarrative(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, parse.Separator)
	return strings.TrimSpace(s)
}

// Validate sends the serialized current graph with a validation
// instruction and returns the model's raw verdict text. An upstream
// reply without usable text is an error.
func (c *Client) Validate(ctx context.Context, serializedGraph, model string) (string, error) {
	if strings.TrimSpace(serializedGraph) == "" {
		return "", ErrInvalidPrompt
	}

	url, shape := c.cfg.Endpoint(model)
	body, err := buildGenerateBody(shape, c.resolveModel(model), validatePrompt(serializedGraph), nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrUpstream, err)
	}

	raw, err := c.post(ctx, url, "application/json", body)
	if err != nil {
		return "", err
	}

	content, err := extractContent(shape, raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrNoValidationText
	}
	return content, nil
}

// Summarize produces a short label for a diagram from its first prompt.
// Always routed to the primary endpoint. Callers run this detached from
// the request path and only log failures.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := buildGenerateBody(c.cfg.APIShape, c.cfg.DefaultModel, summaryPrompt(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrUpstream, err)
	}

	raw, err := c.post(ctx, c.cfg.APIURL, "application/json", body)
	if err != nil {
		return "", err
	}

	return extractContent(c.cfg.APIShape, raw)
}

// resolveModel fills in the configured default for an empty model name.
func (c *Client) resolveModel(model string) string {
	if model == "" {
		return c.cfg.DefaultModel
	}
	return model
}

// post issues the request and returns the response body, mapping every
// transport or status failure to ErrUpstream.
func (c *Client) post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUpstream)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream returned non-2xx", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return raw, nil
}
