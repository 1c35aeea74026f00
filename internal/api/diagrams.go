package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flowsketch/flowsketch/internal/diagram"
	"github.com/flowsketch/flowsketch/internal/engine"
)

// maxBodyBytes caps request bodies. Prompts are text and direct graph
// payloads stay well under this.
const maxBodyBytes = 1 << 20

type diagramHandler struct {
	engine Engine
	logger *slog.Logger
}

type createRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type updateRequest struct {
	Prompt string          `json:"prompt"`
	Model  string          `json:"model"`
	Data   json.RawMessage `json:"data"`
}

// messageView is the transcript entry returned on reads. Snapshots are
// replaced by a hasData flag to keep transcripts small; a snapshot is
// fetched on demand through the version endpoint.
type messageView struct {
	ID        uuid.UUID    `json:"id"`
	DiagramID uuid.UUID    `json:"diagramId"`
	Role      diagram.Role `json:"role"`
	Content   string       `json:"content"`
	HasData   bool         `json:"hasData"`
	CreatedAt time.Time    `json:"createdAt"`
}

type diagramView struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Summary   string          `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Messages  []messageView   `json:"messages"`
}

func toView(d *diagram.Diagram) diagramView {
	v := diagramView{
		ID:        d.ID,
		Name:      d.Name,
		Data:      d.Data,
		Summary:   d.Summary,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Messages:  make([]messageView, 0, len(d.Messages)),
	}
	for _, m := range d.Messages {
		v.Messages = append(v.Messages, messageView{
			ID:        m.ID,
			DiagramID: m.DiagramID,
			Role:      m.Role,
			Content:   m.Content,
			HasData:   m.HasData(),
			CreatedAt: m.CreatedAt,
		})
	}
	return v
}

func (h *diagramHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	d, err := h.engine.Create(r.Context(), engine.CreateRequest{
		Prompt: req.Prompt,
		Model:  req.Model,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toView(d), h.logger)
}

func (h *diagramHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.List(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if items == nil {
		items = []diagram.ListItem{}
	}
	writeData(w, http.StatusOK, items, h.logger)
}

func (h *diagramHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, toView(d), h.logger)
}

func (h *diagramHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	d, err := h.engine.Update(r.Context(), id, engine.UpdateRequest{
		Prompt: req.Prompt,
		Model:  req.Model,
		Data:   req.Data,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, toView(d), h.logger)
}

func (h *diagramHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

func (h *diagramHandler) validate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.engine.Validate(r.Context(), id, r.URL.Query().Get("model"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, toView(d), h.logger)
}

func (h *diagramHandler) getVersion(w http.ResponseWriter, r *http.Request) {
	diagramID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	v, err := h.engine.GetVersion(r.Context(), diagramID, messageID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, v, h.logger)
}

func (h *diagramHandler) applyVersion(w http.ResponseWriter, r *http.Request) {
	diagramID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	d, err := h.engine.ApplyVersion(r.Context(), diagramID, messageID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, toView(d), h.logger)
}

// pathID parses a UUID path value, answering 400 on garbage.
func (h *diagramHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, h.logger, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a size-capped JSON body, answering 400 on failure.
// An empty body decodes to the zero request.
func (h *diagramHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, h.logger, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, h.logger, "invalid request body")
		return false
	}
	return true
}

// writeEngineError maps engine and domain errors onto HTTP statuses.
// Handled failures surface their message; anything unexpected stays a
// generic 500.
func (h *diagramHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, diagram.ErrNotFound), errors.Is(err, diagram.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, h.logger, err.Error())
	case errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, engine.ErrGenerationFailed),
		errors.Is(err, engine.ErrValidationFailed),
		errors.Is(err, diagram.ErrInvalidSnapshot):
		writeError(w, http.StatusBadRequest, h.logger, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, h.logger, "internal server error")
	}
}
