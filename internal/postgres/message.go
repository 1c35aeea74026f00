package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flowsketch/flowsketch/internal/diagram"
)

// AddMessage appends one turn to a diagram's conversation log and
// returns it with the generated id and timestamp. Messages are never
// updated afterwards.
func (s *Store) AddMessage(ctx context.Context, diagramID uuid.UUID, role diagram.Role, content string, data json.RawMessage) (*diagram.Message, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO diagram_messages (diagram_id, role, content, data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		toPgUUID(diagramID), string(role), content, nullableJSON(data))

	msg := diagram.Message{
		DiagramID: diagramID,
		Role:      role,
		Content:   content,
		Data:      data,
	}
	var id pgtype.UUID
	if err := row.Scan(&id, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("adding message to diagram %s: %w", diagramID, err)
	}
	msg.ID = id.Bytes

	s.logger.Debug("added message", "diagram_id", diagramID, "role", role)
	return &msg, nil
}

// GetMessages returns all messages of a diagram in creation order.
// Insertion order is the sole ordering signal for transcripts, so the
// query orders by created_at with id as a stable tiebreak.
func (s *Store) GetMessages(ctx context.Context, diagramID uuid.UUID) ([]diagram.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, diagram_id, role, content, data, created_at
		 FROM diagram_messages
		 WHERE diagram_id = $1
		 ORDER BY created_at ASC, id ASC`,
		toPgUUID(diagramID))
	if err != nil {
		return nil, fmt.Errorf("getting messages for diagram %s: %w", diagramID, err)
	}
	defer rows.Close()

	var messages []diagram.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting messages for diagram %s: %w", diagramID, err)
	}
	return messages, nil
}

// GetMessage fetches a single message by id.
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*diagram.Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, diagram_id, role, content, data, created_at
		 FROM diagram_messages WHERE id = $1`,
		toPgUUID(id))

	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, diagram.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return msg, nil
}

func scanMessage(row pgx.Row) (*diagram.Message, error) {
	var (
		id        pgtype.UUID
		diagramID pgtype.UUID
		role      string
		msg       diagram.Message
		data      []byte
	)
	if err := row.Scan(&id, &diagramID, &role, &msg.Content, &data, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.ID = id.Bytes
	msg.DiagramID = diagramID.Bytes
	msg.Role = diagram.Role(role)
	if data != nil {
		msg.Data = json.RawMessage(data)
	}
	return &msg, nil
}
