package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/iconstore"
	"github.com/vbonduro/mcprogress/internal/store"
)

// LibraryService covers the scene, diagram, item and category operations the
// editor needs around packaging.
type LibraryService struct {
	uow    unitOfWork
	icons  iconstore.IconStore
	logger *slog.Logger
}

func NewLibraryService(uow unitOfWork, icons iconstore.IconStore, logger *slog.Logger) *LibraryService {
	return &LibraryService{uow: uow, icons: icons, logger: logger}
}

func (s *LibraryService) ListScenes(ctx context.Context) ([]*domain.Scene, error) {
	var scenes []*domain.Scene
	err := s.uow.Read(ctx, func(st *store.Set) error {
		var err error
		scenes, err = st.Scenes.List(ctx)
		return err
	})
	return scenes, err
}

func (s *LibraryService) CreateScene(ctx context.Context, name string) (*domain.Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("scene name is required: %w", ErrInvalidInput)
	}

	var scene *domain.Scene
	err := s.uow.Write(ctx, func(st *store.Set) error {
		if err := sceneNameFree(ctx, st, name, 0); err != nil {
			return err
		}
		var err error
		scene, err = st.Scenes.Create(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scene created", "scene_id", scene.ID, "name", scene.Name)
	return scene, nil
}

// RenameScene gives a scene a new name that no other scene uses.
func (s *LibraryService) RenameScene(ctx context.Context, sceneID int64, name string) (*domain.Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("scene name is required: %w", ErrInvalidInput)
	}

	var scene *domain.Scene
	err := s.uow.Write(ctx, func(st *store.Set) error {
		current, err := st.Scenes.GetByID(ctx, sceneID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("scene %d: %w", sceneID, ErrNotFound)
		}
		if err := sceneNameFree(ctx, st, name, sceneID); err != nil {
			return err
		}
		if err := st.Scenes.Rename(ctx, sceneID, name); err != nil {
			return err
		}
		scene, err = st.Scenes.GetByID(ctx, sceneID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scene renamed", "scene_id", sceneID, "name", name)
	return scene, nil
}

// sceneNameFree fails with ErrConflict when a scene other than self is
// called name.
func sceneNameFree(ctx context.Context, st *store.Set, name string, self int64) error {
	other, err := st.Scenes.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if other != nil && other.ID != self {
		return fmt.Errorf("scene %q: %w", name, ErrConflict)
	}
	return nil
}

func (s *LibraryService) DeleteScene(ctx context.Context, sceneID int64) error {
	return s.uow.Write(ctx, func(st *store.Set) error {
		scene, err := st.Scenes.GetByID(ctx, sceneID)
		if err != nil {
			return err
		}
		if scene == nil {
			return fmt.Errorf("scene %d: %w", sceneID, ErrNotFound)
		}
		return st.Scenes.Delete(ctx, sceneID)
	})
}

// GetGraph returns the scene's diagram. A scene that never had one gets an
// empty diagram, which is stored so later exports find it.
func (s *LibraryService) GetGraph(ctx context.Context, sceneID int64) (*domain.Diagram, error) {
	var d *domain.Diagram
	err := s.uow.Write(ctx, func(st *store.Set) error {
		scene, err := st.Scenes.GetByID(ctx, sceneID)
		if err != nil {
			return err
		}
		if scene == nil {
			return fmt.Errorf("scene %d: %w", sceneID, ErrNotFound)
		}

		d, err = st.Diagrams.Get(ctx, sceneID)
		if err != nil || d != nil {
			return err
		}
		empty := domain.EmptyDiagram()
		if err := st.Diagrams.Put(ctx, sceneID, empty); err != nil {
			return err
		}
		d = &empty
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *LibraryService) PutGraph(ctx context.Context, sceneID int64, d domain.Diagram) error {
	return s.uow.Write(ctx, func(st *store.Set) error {
		scene, err := st.Scenes.GetByID(ctx, sceneID)
		if err != nil {
			return err
		}
		if scene == nil {
			return fmt.Errorf("scene %d: %w", sceneID, ErrNotFound)
		}
		return st.Diagrams.Put(ctx, sceneID, d)
	})
}

// SearchItems filters the library. An empty query and category "All" or ""
// list everything.
func (s *LibraryService) SearchItems(ctx context.Context, query, category string) ([]*domain.Item, error) {
	var items []*domain.Item
	err := s.uow.Read(ctx, func(st *store.Set) error {
		var err error
		items, err = st.Items.Search(ctx, strings.TrimSpace(query), category)
		return err
	})
	return items, err
}

// ListCategories returns the default category followed by the custom ones.
func (s *LibraryService) ListCategories(ctx context.Context) ([]string, error) {
	var names []string
	err := s.uow.Read(ctx, func(st *store.Set) error {
		custom, err := st.Categories.ListNames(ctx)
		if err != nil {
			return err
		}
		names = append([]string{domain.DefaultCategory}, custom...)
		return nil
	})
	return names, err
}

func (s *LibraryService) CreateCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == domain.DefaultCategory {
		return fmt.Errorf("category name %q: %w", name, ErrInvalidInput)
	}
	return s.uow.Write(ctx, func(st *store.Set) error {
		_, err := st.Categories.Create(ctx, name)
		return err
	})
}

// DeleteCategory removes a custom category; its items move to the default
// category.
func (s *LibraryService) DeleteCategory(ctx context.Context, name string) error {
	if name == domain.DefaultCategory {
		return fmt.Errorf("the default category cannot be deleted: %w", ErrInvalidInput)
	}
	return s.uow.Write(ctx, func(st *store.Set) error {
		ok, err := st.Categories.Exists(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return st.Categories.Delete(ctx, name)
	})
}

// ItemInput holds the fields of a new item.
type ItemInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IconPath    string `json:"icon_path"`
}

// ItemPatch holds the fields to change on an item; nil fields are kept.
type ItemPatch struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	IconPath    *string `json:"icon_path"`
}

// CreateItem adds an item to the library. Name and category together must
// be unique, since imports match items on that pair. A new custom category
// is created along with the item.
func (s *LibraryService) CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return nil, fmt.Errorf("item name is required: %w", ErrInvalidInput)
	}
	if in.Category == "" {
		in.Category = domain.DefaultCategory
	}

	var item *domain.Item
	err := s.uow.Write(ctx, func(st *store.Set) error {
		if err := itemKeyFree(ctx, st, in.Name, in.Category, 0); err != nil {
			return err
		}
		if err := ensureCategory(ctx, st, in.Category); err != nil {
			return err
		}
		var err error
		item, err = st.Items.Create(ctx, in.Name, in.Category, in.Description, in.IconPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", "item_id", item.ID, "name", item.Name, "category", item.Category)
	return item, nil
}

// UpdateItem applies patch to an item.
func (s *LibraryService) UpdateItem(ctx context.Context, itemID int64, patch ItemPatch) (*domain.Item, error) {
	var item *domain.Item
	err := s.uow.Write(ctx, func(st *store.Set) error {
		current, err := st.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}

		next := *current
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Category != nil {
			next.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.IconPath != nil {
			next.IconPath = *patch.IconPath
		}
		if next.Name == "" {
			return fmt.Errorf("item name is required: %w", ErrInvalidInput)
		}
		if next.Category == "" {
			next.Category = domain.DefaultCategory
		}

		if err := itemKeyFree(ctx, st, next.Name, next.Category, itemID); err != nil {
			return err
		}
		if err := ensureCategory(ctx, st, next.Category); err != nil {
			return err
		}
		if err := st.Items.Update(ctx, itemID, next.Name, next.Category, next.Description, next.IconPath); err != nil {
			return err
		}
		item, err = st.Items.GetByID(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item updated", "item_id", itemID)
	return item, nil
}

// DeleteItem removes an item. Its icon file is removed as well once no other
// item uses it.
func (s *LibraryService) DeleteItem(ctx context.Context, itemID int64) error {
	var orphanIcon string
	err := s.uow.Write(ctx, func(st *store.Set) error {
		item, err := st.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		if err := st.Items.Delete(ctx, itemID); err != nil {
			return err
		}
		if item.IconPath == "" {
			return nil
		}
		n, err := st.Items.CountWithIcon(ctx, item.IconPath)
		if err != nil {
			return err
		}
		if n == 0 {
			orphanIcon = item.IconPath
		}
		return nil
	})
	if err != nil {
		return err
	}

	if orphanIcon != "" {
		if err := s.icons.Delete(ctx, orphanIcon); err != nil && !errors.Is(err, iconstore.ErrNotFound) {
			s.logger.Error("failed to remove icon of deleted item", "item_id", itemID, "icon_path", orphanIcon, "error", err)
		}
	}
	s.logger.Info("item deleted", "item_id", itemID)
	return nil
}

func itemKeyFree(ctx context.Context, st *store.Set, name, category string, self int64) error {
	other, err := st.Items.FindByNameCategory(ctx, name, category)
	if err != nil {
		return err
	}
	if other != nil && other.ID != self {
		return fmt.Errorf("item %q in %q: %w", name, category, ErrConflict)
	}
	return nil
}

func ensureCategory(ctx context.Context, st *store.Set, name string) error {
	if name == domain.DefaultCategory {
		return nil
	}
	_, err := st.Categories.Ensure(ctx, name)
	return err
}
