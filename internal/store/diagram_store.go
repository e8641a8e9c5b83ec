package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/mcprogress/internal/domain"
)

// DiagramStore keeps one JSON diagram per scene in the graphs table.
type DiagramStore struct {
	db DBTX
}

func NewDiagramStore(db DBTX) *DiagramStore {
	return &DiagramStore{db: db}
}

// Get returns the scene's diagram, or nil when none was ever stored.
func (s *DiagramStore) Get(ctx context.Context, sceneID int64) (*domain.Diagram, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT json FROM graphs WHERE scene_id = ?
	`, sceneID).Scan(&raw)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram: %w", err)
	}

	var d domain.Diagram
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode diagram for scene %d: %w", sceneID, err)
	}
	d = d.Normalized()
	return &d, nil
}

// Put stores the diagram, replacing any previous one for the scene.
func (s *DiagramStore) Put(ctx context.Context, sceneID int64, d domain.Diagram) error {
	data, err := json.Marshal(d.Normalized())
	if err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (scene_id, json, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(scene_id) DO UPDATE SET json = excluded.json, updated_at = excluded.updated_at
	`, sceneID, string(data))
	if err != nil {
		return fmt.Errorf("failed to store diagram: %w", err)
	}
	return nil
}
