// Package engine orchestrates diagram conversations: it owns the
// append-only message log, keeps the current-graph projection in step
// with model output, and drives validation and background
// summarization.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowsketch/flowsketch/internal/ai"
	"github.com/flowsketch/flowsketch/internal/diagram"
)

// Store is the persistence surface the engine needs.
type Store interface {
	CreateDiagram(ctx context.Context, name string, data json.RawMessage) (*diagram.Diagram, error)
	GetDiagram(ctx context.Context, id uuid.UUID) (*diagram.Diagram, error)
	ListDiagrams(ctx context.Context) ([]diagram.ListItem, error)
	UpdateDiagramData(ctx context.Context, id uuid.UUID, data json.RawMessage) error
	UpdateDiagramSummary(ctx context.Context, id uuid.UUID, summary string) error
	DeleteDiagram(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, diagramID uuid.UUID, role diagram.Role, content string, data json.RawMessage) (*diagram.Message, error)
	GetMessages(ctx context.Context, diagramID uuid.UUID) ([]diagram.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*diagram.Message, error)
}

// Gateway is the model surface the engine needs.
type Gateway interface {
	Generate(ctx context.Context, prompt string, history []diagram.Message, model string) (*ai.GenerateResult, error)
	Validate(ctx context.Context, serializedGraph, model string) (string, error)
	Summarize(ctx context.Context, prompt string) (string, error)
}

// generationFailureText is the synthetic assistant turn recorded when a
// model call fails mid-conversation, so the failure stays visible in
// the replayable history.
const generationFailureText = "An error occurred while generating the diagram. Please try again."

// validationPrefix introduces the model's verdict when it is fed back
// into the conversation as an assistant turn.
const validationPrefix = "Diagram validation result:\n\n"

const defaultSummaryTimeout = 2 * time.Minute

// Engine coordinates the store and the model gateway. Safe for
// concurrent use; concurrent updates to one diagram are last-write-wins
// on the graph projection while the message log keeps every turn.
type Engine struct {
	store   Store
	gateway Gateway
	logger  *slog.Logger

	summaryTimeout time.Duration
	background     sync.WaitGroup
}

// New creates an Engine.
func New(store Store, gateway Gateway, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:          store,
		gateway:        gateway,
		logger:         logger,
		summaryTimeout: defaultSummaryTimeout,
	}
}

// Wait blocks until all background work has drained. Called on shutdown
// so in-flight summarizations finish before the pool closes.
func (e *Engine) Wait() {
	e.background.Wait()
}

// CreateRequest starts a new diagram. An empty Prompt creates a blank
// diagram without invoking the model.
type CreateRequest struct {
	Prompt string
	Model  string
}

// Create makes a new diagram named after its creation instant. When a
// prompt is given, the first generation runs before anything is
// persisted: a failed first turn leaves no diagram behind. On success a
// summarization of the prompt is kicked off in the background.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*diagram.Diagram, error) {
	name := fmt.Sprintf("diagram-%d", time.Now().UnixMilli())

	if strings.TrimSpace(req.Prompt) == "" {
		d, err := e.store.CreateDiagram(ctx, name, diagram.EmptyGraph)
		if err != nil {
			return nil, err
		}
		e.logger.Info("created diagram", "id", d.ID, "name", d.Name)
		return d, nil
	}

	result, err := e.gateway.Generate(ctx, req.Prompt, nil, req.Model)
	if err != nil {
		e.logger.Error("model generation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	data := result.Data
	if len(data) == 0 {
		data = diagram.EmptyGraph
	}

	d, err := e.store.CreateDiagram(ctx, name, data)
	if err != nil {
		return nil, err
	}
	e.logger.Info("created diagram", "id", d.ID, "name", d.Name)

	if _, err := e.store.AddMessage(ctx, d.ID, diagram.RoleUser, req.Prompt, nil); err != nil {
		return nil, err
	}
	if result.Message != nil {
		if _, err := e.store.AddMessage(ctx, d.ID, diagram.RoleAssistant, result.Message.Content, result.Data); err != nil {
			return nil, err
		}
	}

	e.summarizeAsync(ctx, d.ID, req.Prompt)
	return e.Get(ctx, d.ID)
}

// UpdateRequest advances a diagram. Exactly one of Prompt or Data
// drives the update: a prompt runs a conversational turn, a data
// payload replaces the graph directly without touching the log.
type UpdateRequest struct {
	Prompt string
	Model  string
	Data   json.RawMessage
}

// Update applies one update to an existing diagram.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*diagram.Diagram, error) {
	if strings.TrimSpace(req.Prompt) != "" {
		return e.converse(ctx, id, req.Prompt, diagram.RoleUser, req.Model)
	}

	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: neither prompt nor data given", ErrInvalidRequest)
	}
	if err := e.store.UpdateDiagramData(ctx, id, req.Data); err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Validate asks the model to review the current graph and feeds the
// verdict back into the conversation as an assistant turn, so the model
// can propose fixes on the next round.
func (e *Engine) Validate(ctx context.Context, id uuid.UUID, model string) (*diagram.Diagram, error) {
	d, err := e.store.GetDiagram(ctx, id)
	if err != nil {
		return nil, err
	}
	if !diagram.IsValidGraph(d.Data) {
		return nil, fmt.Errorf("%w: diagram has no graph to validate", ErrInvalidRequest)
	}

	verdict, err := e.gateway.Validate(ctx, string(d.Data), model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return e.converse(ctx, id, validationPrefix+verdict, diagram.RoleAssistant, model)
}

// Get returns a diagram with its full conversation log.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*diagram.Diagram, error) {
	d, err := e.store.GetDiagram(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := e.store.GetMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Messages = messages
	return d, nil
}

// List returns the diagram listing, newest first.
func (e *Engine) List(ctx context.Context) ([]diagram.ListItem, error) {
	return e.store.ListDiagrams(ctx)
}

// Delete removes a diagram and its log.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	return e.store.DeleteDiagram(ctx, id)
}

// converse runs one conversational turn: record the incoming message,
// call the model with the history that preceded it, persist the
// assistant's reply, and advance the graph projection when the reply
// carries a structurally valid one.
//
// The incoming message is persisted before the model call, so on model
// failure the log still shows the turn plus a synthetic assistant error.
func (e *Engine) converse(ctx context.Context, id uuid.UUID, prompt string, role diagram.Role, model string) (*diagram.Diagram, error) {
	history, err := e.store.GetMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.AddMessage(ctx, id, role, prompt, nil); err != nil {
		return nil, err
	}

	result, err := e.gateway.Generate(ctx, prompt, history, model)
	if err != nil {
		e.logger.Error("model generation failed", "diagram_id", id, "error", err)
		if _, recErr := e.store.AddMessage(ctx, id, diagram.RoleAssistant, generationFailureText, nil); recErr != nil {
			e.logger.Error("recording generation failure", "diagram_id", id, "error", recErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if diagram.IsValidGraph(result.Data) {
		if err := e.store.UpdateDiagramData(ctx, id, result.Data); err != nil {
			return nil, err
		}
	}

	if _, err := e.store.AddMessage(ctx, id, diagram.RoleAssistant, result.Message.Content, result.Data); err != nil {
		return nil, err
	}

	return e.Get(ctx, id)
}

// summarizeAsync titles the diagram from its first prompt without
// holding up the response. The work detaches from the request context
// so a client disconnect cannot cancel it; failures are logged and the
// summary simply stays empty.
func (e *Engine) summarizeAsync(ctx context.Context, id uuid.UUID, prompt string) {
	e.background.Add(1)
	go func() {
		defer e.background.Done()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.summaryTimeout)
		defer cancel()

		summary, err := e.gateway.Summarize(sctx, prompt)
		if err != nil {
			e.logger.Warn("summarization failed", "diagram_id", id, "error", err)
			return
		}
		summary = strings.TrimSpace(summary)
		if summary == "" {
			return
		}

		if err := e.store.UpdateDiagramSummary(sctx, id, summary); err != nil {
			e.logger.Warn("storing summary failed", "diagram_id", id, "error", err)
		}
	}()
}
