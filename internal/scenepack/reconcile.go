package scenepack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/iconstore"
)

// ItemWriter creates library items and backfills their icons.
type ItemWriter interface {
	Create(ctx context.Context, name, category, description, iconPath string) (*domain.Item, error)
	SetIcon(ctx context.Context, id int64, iconPath string) error
}

// IconWriter stores icon bytes under a freshly generated name and returns
// the new icon path.
type IconWriter interface {
	Save(ctx context.Context, ext string, r io.Reader) (string, error)
}

// AssetSource resolves an item record's icon path inside an archive.
type AssetSource interface {
	Lookup(iconPath string) ([]byte, bool, error)
}

// Reconciliation is the outcome of merging archive items into a library.
type Reconciliation struct {
	// Mapping maps every incoming item id to its id in the library.
	Mapping map[int64]int64
	// Created, Reused and Backfilled hold library item ids.
	Created    []int64
	Reused     []int64
	Backfilled []int64
	// WrittenIcons lists the icon paths saved while reconciling.
	WrittenIcons []string
}

type itemKey struct {
	name     string
	category string
}

// Reconciler merges incoming item records into an item library, matching
// items on exact name and category.
type Reconciler struct {
	items  ItemWriter
	icons  IconWriter
	logger *slog.Logger
}

func NewReconciler(items ItemWriter, icons IconWriter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{items: items, icons: icons, logger: logger}
}

// Reconcile maps every incoming record to a library item. A record whose
// (name, category) matches an existing item reuses it, and gives it an icon
// when it has none. Other records become new items; those join the index so
// later duplicates in the same archive reuse them. Icons missing from the
// archive are ignored.
//
// On error the returned Reconciliation still lists the icons written so far
// so the caller can remove them.
func (r *Reconciler) Reconcile(ctx context.Context, incoming []ItemRecord, existing []*domain.Item, assets AssetSource) (Reconciliation, error) {
	res := Reconciliation{Mapping: make(map[int64]int64, len(incoming))}

	index := make(map[itemKey]*domain.Item, len(existing))
	for _, item := range existing {
		key := itemKey{name: item.Name, category: item.Category}
		// Oldest item wins when the library already has duplicates.
		if prev, ok := index[key]; !ok || item.ID < prev.ID {
			copied := *item
			index[key] = &copied
		}
	}

	for _, rec := range incoming {
		category := rec.Category
		if category == "" {
			category = domain.DefaultCategory
		}
		key := itemKey{name: rec.Name, category: category}

		if item, ok := index[key]; ok {
			res.Mapping[rec.ID] = item.ID
			res.Reused = append(res.Reused, item.ID)
			if item.IconPath != "" {
				continue
			}
			iconPath, err := r.materialize(ctx, rec, assets, &res)
			if err != nil {
				return res, err
			}
			if iconPath == "" {
				continue
			}
			if err := r.items.SetIcon(ctx, item.ID, iconPath); err != nil {
				return res, fmt.Errorf("failed to backfill icon of item %d: %w", item.ID, err)
			}
			item.IconPath = iconPath
			res.Backfilled = append(res.Backfilled, item.ID)
			continue
		}

		iconPath, err := r.materialize(ctx, rec, assets, &res)
		if err != nil {
			return res, err
		}
		created, err := r.items.Create(ctx, rec.Name, category, rec.Description, iconPath)
		if err != nil {
			return res, fmt.Errorf("failed to create item %q: %w", rec.Name, err)
		}
		index[key] = created
		res.Mapping[rec.ID] = created.ID
		res.Created = append(res.Created, created.ID)
	}

	return res, nil
}

// materialize copies the record's icon from the archive into the icon store
// and returns the new icon path, or "" when the record has no usable icon.
func (r *Reconciler) materialize(ctx context.Context, rec ItemRecord, assets AssetSource, res *Reconciliation) (string, error) {
	if rec.IconPath == "" || assets == nil {
		return "", nil
	}
	data, ok, err := assets.Lookup(rec.IconPath)
	if err != nil {
		return "", err
	}
	if !ok {
		r.logger.Debug("icon missing from package", "item_id", rec.ID, "icon_path", rec.IconPath)
		return "", nil
	}

	iconPath, err := r.icons.Save(ctx, iconstore.NormalizeExt(rec.IconPath), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to save icon of item %d: %w", rec.ID, err)
	}
	res.WrittenIcons = append(res.WrittenIcons, iconPath)
	return iconPath, nil
}
