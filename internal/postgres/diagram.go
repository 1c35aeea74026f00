package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flowsketch/flowsketch/internal/diagram"
)

// CreateDiagram inserts a diagram. data may be nil for a diagram created
// without any graph yet.
func (s *Store) CreateDiagram(ctx context.Context, name string, data json.RawMessage) (*diagram.Diagram, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO diagrams (name, data)
		 VALUES ($1, $2)
		 RETURNING id, name, data, summary, created_at, updated_at`,
		name, nullableJSON(data))

	d, err := scanDiagram(row)
	if err != nil {
		return nil, fmt.Errorf("creating diagram: %w", err)
	}

	s.logger.Debug("created diagram", "id", d.ID, "name", d.Name)
	return d, nil
}

// GetDiagram fetches a diagram without its messages.
func (s *Store) GetDiagram(ctx context.Context, id uuid.UUID) (*diagram.Diagram, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, data, summary, created_at, updated_at
		 FROM diagrams WHERE id = $1`,
		toPgUUID(id))

	d, err := scanDiagram(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, diagram.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting diagram %s: %w", id, err)
	}
	return d, nil
}

// ListDiagrams returns the listing projection, newest first.
func (s *Store) ListDiagrams(ctx context.Context) ([]diagram.ListItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, summary
		 FROM diagrams ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing diagrams: %w", err)
	}
	defer rows.Close()

	var items []diagram.ListItem
	for rows.Next() {
		var (
			id        pgtype.UUID
			name      string
			createdAt time.Time
			summary   *string
		)
		if err := rows.Scan(&id, &name, &createdAt, &summary); err != nil {
			return nil, fmt.Errorf("scanning diagram row: %w", err)
		}
		item := diagram.ListItem{ID: id.Bytes, Name: name, CreatedAt: createdAt}
		if summary != nil {
			item.Summary = *summary
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing diagrams: %w", err)
	}
	return items, nil
}

// UpdateDiagramData replaces the diagram's current graph. Whole-field
// replacement only, never a partial merge.
func (s *Store) UpdateDiagramData(ctx context.Context, id uuid.UUID, data json.RawMessage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE diagrams SET data = $2, updated_at = now() WHERE id = $1`,
		toPgUUID(id), nullableJSON(data))
	if err != nil {
		return fmt.Errorf("updating diagram %s data: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return diagram.ErrNotFound
	}
	return nil
}

// UpdateDiagramSummary sets only the summary field. It never touches the
// graph, so a late summarization cannot clobber newer diagram state.
func (s *Store) UpdateDiagramSummary(ctx context.Context, id uuid.UUID, summary string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE diagrams SET summary = $2 WHERE id = $1`,
		toPgUUID(id), summary)
	if err != nil {
		return fmt.Errorf("updating diagram %s summary: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return diagram.ErrNotFound
	}
	return nil
}

// DeleteDiagram removes a diagram; messages cascade at the schema level.
func (s *Store) DeleteDiagram(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM diagrams WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("deleting diagram %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return diagram.ErrNotFound
	}

	s.logger.Debug("deleted diagram", "id", id)
	return nil
}

// nullableJSON maps an absent payload to SQL NULL instead of the empty
// byte slice pgx would otherwise reject.
func nullableJSON(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}

func scanDiagram(row pgx.Row) (*diagram.Diagram, error) {
	var (
		id      pgtype.UUID
		d       diagram.Diagram
		data    []byte
		summary *string
	)
	if err := row.Scan(&id, &d.Name, &data, &summary, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ID = id.Bytes
	if data != nil {
		d.Data = json.RawMessage(data)
	}
	if summary != nil {
		d.Summary = *summary
	}
	return &d, nil
}
