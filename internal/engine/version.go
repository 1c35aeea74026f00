package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowsketch/flowsketch/internal/diagram"
)

// GetVersion returns the graph snapshot carried by one assistant turn,
// without changing any state. Messages that carried no snapshot (pure
// commentary, user prompts) have no version to show.
func (e *Engine) GetVersion(ctx context.Context, diagramID, messageID uuid.UUID) (*diagram.Version, error) {
	msg, err := e.snapshotMessage(ctx, diagramID, messageID)
	if err != nil {
		return nil, err
	}

	return &diagram.Version{
		DiagramID: diagramID,
		MessageID: msg.ID,
		Data:      msg.Data,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// ApplyVersion rolls the current graph back to the snapshot carried by
// the given message. The conversation log is untouched, so the rollback
// itself leaves no turn and applying the same snapshot twice is
// harmless. Snapshots that no longer parse as a graph are refused.
func (e *Engine) ApplyVersion(ctx context.Context, diagramID, messageID uuid.UUID) (*diagram.Diagram, error) {
	msg, err := e.snapshotMessage(ctx, diagramID, messageID)
	if err != nil {
		return nil, err
	}
	if !diagram.IsValidGraph(msg.Data) {
		return nil, fmt.Errorf("%w: message %s", diagram.ErrInvalidSnapshot, messageID)
	}

	if err := e.store.UpdateDiagramData(ctx, diagramID, msg.Data); err != nil {
		return nil, err
	}
	e.logger.Info("applied version", "diagram_id", diagramID, "message_id", messageID)

	return e.Get(ctx, diagramID)
}

// snapshotMessage loads a message, scoped to the diagram it must belong
// to, and requires it to carry a snapshot.
func (e *Engine) snapshotMessage(ctx context.Context, diagramID, messageID uuid.UUID) (*diagram.Message, error) {
	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.DiagramID != diagramID {
		return nil, diagram.ErrNotFound
	}
	if !msg.HasData() {
		return nil, fmt.Errorf("%w: message %s", diagram.ErrNoSnapshot, messageID)
	}
	return msg, nil
}
