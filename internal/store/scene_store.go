package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/mcprogress/internal/domain"
)

type SceneStore struct {
	db DBTX
}

func NewSceneStore(db DBTX) *SceneStore {
	return &SceneStore{db: db}
}

func (s *SceneStore) Create(ctx context.Context, name string) (*domain.Scene, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO scenes (name) VALUES (?)
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *SceneStore) GetByID(ctx context.Context, id int64) (*domain.Scene, error) {
	scene := &domain.Scene{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM scenes WHERE id = ?
	`, id).Scan(&scene.ID, &scene.Name, &scene.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}

	return scene, nil
}

// FindByName returns the oldest scene with exactly this name, or nil.
func (s *SceneStore) FindByName(ctx context.Context, name string) (*domain.Scene, error) {
	scene := &domain.Scene{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM scenes WHERE name = ? ORDER BY id ASC LIMIT 1
	`, name).Scan(&scene.ID, &scene.Name, &scene.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find scene: %w", err)
	}

	return scene, nil
}

func (s *SceneStore) Rename(ctx context.Context, id int64, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scenes SET name = ? WHERE id = ?
	`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename scene: %w", err)
	}
	return expectOneRow(result, "scene")
}

// List returns scenes newest first.
func (s *SceneStore) List(ctx context.Context) ([]*domain.Scene, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM scenes ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	scenes := []*domain.Scene{}
	for rows.Next() {
		scene := &domain.Scene{}
		if err := rows.Scan(&scene.ID, &scene.Name, &scene.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenes: %w", err)
	}

	return scenes, nil
}

// Count is used by seeding to detect an empty database.
func (s *SceneStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scenes: %w", err)
	}
	return n, nil
}

// Delete removes the scene; its diagram goes with it (ON DELETE CASCADE).
func (s *SceneStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM scenes WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	return expectOneRow(result, "scene")
}
