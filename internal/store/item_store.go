package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/mcprogress/internal/domain"
)

const itemColumns = `id, name, category, description, icon_path, created_at`

type ItemStore struct {
	db DBTX
}

func NewItemStore(db DBTX) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, name, category, description, iconPath string) (*domain.Item, error) {
	if category == "" {
		category = domain.DefaultCategory
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, category, description, icon_path) VALUES (?, ?, ?, ?)
	`, name, category, description, iconPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item := &domain.Item{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = ?
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Description, &item.IconPath, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// FindByNameCategory returns the item whose name and category match exactly
// (case sensitive), or nil. When several items share the key the oldest wins.
func (s *ItemStore) FindByNameCategory(ctx context.Context, name, category string) (*domain.Item, error) {
	item := &domain.Item{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE name = ? AND category = ? ORDER BY id ASC LIMIT 1
	`, name, category).Scan(&item.ID, &item.Name, &item.Category, &item.Description, &item.IconPath, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	return item, nil
}

// List returns the whole library, newest first.
func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, id DESC`)
}

// ListByIDs returns the items with the given ids in ascending id order. Ids
// that do not exist are skipped.
func (s *ItemStore) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Item, error) {
	if len(ids) == 0 {
		return []*domain.Item{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id ASC
	`, args...)
}

// Search filters by a case-insensitive substring of name, description or
// category and optionally by an exact category. An empty category or "All"
// disables the category filter.
func (s *ItemStore) Search(ctx context.Context, query, category string) ([]*domain.Item, error) {
	var (
		where []string
		args  []any
	)
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if category != "" && category != "All" {
		where = append(where, "category = ?")
		args = append(args, category)
	}

	q := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	return s.query(ctx, q, args...)
}

func (s *ItemStore) query(ctx context.Context, q string, args ...any) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := []*domain.Item{}
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Description, &item.IconPath, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *ItemStore) Update(ctx context.Context, id int64, name, category, description, iconPath string) error {
	if category == "" {
		category = domain.DefaultCategory
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, category = ?, description = ?, icon_path = ? WHERE id = ?
	`, name, category, description, iconPath, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return expectOneRow(result, "item")
}

// SetIcon replaces only the icon reference of an item.
func (s *ItemStore) SetIcon(ctx context.Context, id int64, iconPath string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET icon_path = ? WHERE id = ?
	`, iconPath, id)
	if err != nil {
		return fmt.Errorf("failed to set item icon: %w", err)
	}
	return expectOneRow(result, "item")
}

// ReassignCategory moves every item in category from to category to and
// returns how many items moved.
func (s *ItemStore) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET category = ? WHERE category = ?
	`, to, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CountWithIcon counts the items whose icon is iconPath.
func (s *ItemStore) CountWithIcon(ctx context.Context, iconPath string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM items WHERE icon_path = ?
	`, iconPath).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count items with icon: %w", err)
	}
	return n, nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return expectOneRow(result, "item")
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found", what)
	}

	return nil
}
