package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vbonduro/mcprogress/internal/diagram"
	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/iconstore"
	"github.com/vbonduro/mcprogress/internal/scenepack"
	"github.com/vbonduro/mcprogress/internal/store"
)

const importTimeLayout = "2006-01-02 15:04:05"

// PackageOptions tunes scene export.
type PackageOptions struct {
	// ExportAllWhenUnreferenced exports the whole item library when the
	// diagram references no items. When false such a package has no items.
	ExportAllWhenUnreferenced bool
}

// ImportResult describes a finished import.
type ImportResult struct {
	SceneID           int64           `json:"scene_id"`
	SceneName         string          `json:"scene_name"`
	Created           int             `json:"created"`
	Reused            int             `json:"reused"`
	Backfilled        int             `json:"backfilled"`
	CategoriesCreated int             `json:"categories_created"`
	Mapping           map[int64]int64 `json:"mapping"`
}

// PackageService exports scenes as packages and imports packages as new
// scenes.
type PackageService struct {
	uow    unitOfWork
	icons  iconstore.IconStore
	clock  clockwork.Clock
	opts   PackageOptions
	logger *slog.Logger
}

func NewPackageService(
	uow unitOfWork,
	icons iconstore.IconStore,
	clock clockwork.Clock,
	opts PackageOptions,
	logger *slog.Logger,
) *PackageService {
	return &PackageService{
		uow:    uow,
		icons:  icons,
		clock:  clock,
		opts:   opts,
		logger: logger,
	}
}

// ExportScene packages the scene's diagram, the items it references, all
// category names and the icons of the exported items. It never writes.
func (s *PackageService) ExportScene(ctx context.Context, sceneID int64) ([]byte, error) {
	s.logger.Info("export scene started", "scene_id", sceneID)

	var m scenepack.Manifest
	err := s.uow.Read(ctx, func(st *store.Set) error {
		scene, err := st.Scenes.GetByID(ctx, sceneID)
		if err != nil {
			return fmt.Errorf("failed to get scene: %w", err)
		}
		if scene == nil {
			return fmt.Errorf("scene %d: %w", sceneID, ErrNotFound)
		}

		d, err := st.Diagrams.Get(ctx, sceneID)
		if err != nil {
			return fmt.Errorf("failed to get diagram: %w", err)
		}
		if d == nil {
			return fmt.Errorf("diagram of scene %d: %w", sceneID, ErrNotFound)
		}

		ids, err := diagram.Scan(*d)
		if err != nil {
			return fmt.Errorf("failed to scan diagram: %w", err)
		}

		var items []*domain.Item
		switch {
		case len(ids) > 0:
			items, err = st.Items.ListByIDs(ctx, ids)
		case s.opts.ExportAllWhenUnreferenced:
			s.logger.Debug("diagram references no items, exporting the whole library", "scene_id", sceneID)
			items, err = st.Items.List(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}

		categories, err := st.Categories.ListNames(ctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}

		m = scenepack.Manifest{
			Scene: scenepack.SceneHeader{
				ID:        scene.ID,
				Name:      scene.Name,
				CreatedAt: scene.CreatedAt.UTC().Format(time.RFC3339),
			},
			Graph:      *d,
			Categories: categories,
			Items:      make([]scenepack.ItemRecord, 0, len(items)),
			Notes:      scenepack.Notes{ExportedAt: s.clock.Now().UTC().Format(time.RFC3339)},
		}
		for _, item := range items {
			m.Items = append(m.Items, scenepack.RecordFromItem(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := scenepack.Encode(ctx, &m, scenepack.AssetProviderFunc(s.readIcon))
	if err != nil {
		return nil, fmt.Errorf("failed to encode package: %w", err)
	}

	s.logger.Info("export scene complete", "scene_id", sceneID, "items", len(m.Items), "bytes", len(data))
	return data, nil
}

func (s *PackageService) readIcon(ctx context.Context, iconPath string) ([]byte, bool, error) {
	rc, _, err := s.icons.Get(ctx, iconPath)
	if errors.Is(err, iconstore.ErrNotFound) {
		s.logger.Debug("icon not found, skipping", "icon_path", iconPath)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close icon", "icon_path", iconPath, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read icon %s: %w", iconPath, err)
	}
	return data, true, nil
}

// ImportScene creates a new scene from a package. Items are matched against
// the library on exact name and category; unmatched items are created and
// the diagram's item references are rewritten to the library ids. Everything
// happens in one transaction: on failure nothing is kept, including icon
// files written during the attempt.
func (s *PackageService) ImportScene(ctx context.Context, data []byte) (*ImportResult, error) {
	s.logger.Info("import scene started", "bytes", len(data))

	m, assets, err := scenepack.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode package: %w", err)
	}

	var (
		result = &ImportResult{}
		rec    scenepack.Reconciliation
	)
	err = s.uow.Write(ctx, func(st *store.Set) error {
		scene, err := st.Scenes.Create(ctx, s.importedName(m.Scene.Name))
		if err != nil {
			return fmt.Errorf("failed to create scene: %w", err)
		}
		result.SceneID = scene.ID
		result.SceneName = scene.Name

		for _, name := range categoriesToEnsure(m) {
			created, err := st.Categories.Ensure(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to ensure category %q: %w", name, err)
			}
			if created {
				result.CategoriesCreated++
			}
		}

		existing, err := st.Items.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}

		rec, err = scenepack.NewReconciler(st.Items, s.icons, s.logger).Reconcile(ctx, m.Items, existing, assets)
		if err != nil {
			return fmt.Errorf("failed to reconcile items: %w", err)
		}

		rewritten, err := diagram.Rewrite(m.Graph, rec.Mapping)
		if err != nil {
			return fmt.Errorf("%w: %v", scenepack.ErrInvalidManifest, err)
		}
		if err := st.Diagrams.Put(ctx, scene.ID, rewritten); err != nil {
			return fmt.Errorf("failed to store diagram: %w", err)
		}
		return nil
	})
	if err != nil {
		s.removeIcons(ctx, rec.WrittenIcons)
		s.logger.Error("import scene failed", "error", err)
		return nil, err
	}

	result.Created = len(rec.Created)
	result.Reused = len(rec.Reused)
	result.Backfilled = len(rec.Backfilled)
	result.Mapping = rec.Mapping

	s.logger.Info("import scene complete",
		"scene_id", result.SceneID,
		"created", result.Created,
		"reused", result.Reused,
		"backfilled", result.Backfilled,
	)
	return result, nil
}

func (s *PackageService) importedName(source string) string {
	if source == "" {
		source = "Scene"
	}
	return fmt.Sprintf("%s (imported %s)", source, s.clock.Now().Format(importTimeLayout))
}

// removeIcons deletes icons written by a failed import, even when ctx has
// already been cancelled.
func (s *PackageService) removeIcons(ctx context.Context, iconPaths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, iconPath := range iconPaths {
		if err := s.icons.Delete(ctx, iconPath); err != nil && !errors.Is(err, iconstore.ErrNotFound) {
			s.logger.Error("failed to remove icon after failed import", "icon_path", iconPath, "error", err)
		}
	}
}

// categoriesToEnsure lists the package's category names and the categories of
// its items, without duplicates, the default category or empty names.
func categoriesToEnsure(m *scenepack.Manifest) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || name == domain.DefaultCategory || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, name := range m.Categories {
		add(name)
	}
	for _, item := range m.Items {
		add(item.Category)
	}
	return names
}
