package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/mcprogress/internal/domain"
)

// ErrCategoryExists is returned by Create when the name is already taken.
var ErrCategoryExists = errors.New("category already exists")

type CategoryStore struct {
	db DBTX
}

func NewCategoryStore(db DBTX) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) Create(ctx context.Context, name string) (*domain.Category, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name) VALUES (?)
	`, name)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	category := &domain.Category{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM categories WHERE id = ?
	`, id).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// Ensure creates the category unless it already exists. The insert is
// attempted unconditionally; losing a race against a concurrent creator shows
// up as a unique violation and is reported as created == false.
func (s *CategoryStore) Ensure(ctx context.Context, name string) (created bool, err error) {
	_, err = s.Create(ctx, name)
	if errors.Is(err, ErrCategoryExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CategoryStore) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE name = ?
	`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return n > 0, nil
}

func (s *CategoryStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM categories ORDER BY name COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return names, nil
}

// Delete removes the category and moves its items to the default category.
// Run it inside a transaction to make both steps atomic.
func (s *CategoryStore) Delete(ctx context.Context, name string) error {
	if _, err := NewItemStore(s.db).ReassignCategory(ctx, name, domain.DefaultCategory); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM categories WHERE name = ?
	`, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := expectOneRow(result, "category"); err != nil {
		return err
	}

	return nil
}
