// Package seed fills an empty database with a starter library.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/store"
)

//go:embed defaults.toml
var defaultsTOML []byte

// Library is the content of a seed file.
type Library struct {
	Scenes     []string `toml:"scenes"`
	Categories []string `toml:"categories"`
	Items      []Item   `toml:"items"`
}

type Item struct {
	Name        string `toml:"name"`
	Category    string `toml:"category"`
	Description string `toml:"description"`
}

// Result counts what Apply created.
type Result struct {
	Scenes     int
	Categories int
	Items      int
}

// Default returns the built-in starter library.
func Default() (*Library, error) {
	return Parse(defaultsTOML)
}

// Load reads a seed file, or the built-in library when path is empty.
func Load(path string) (*Library, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Library, error) {
	var lib Library
	if _, err := toml.Decode(string(data), &lib); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, item := range lib.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("seed item %d has no name", i+1)
		}
	}
	return &lib, nil
}

type unitOfWork interface {
	Write(ctx context.Context, fn func(s *store.Set) error) error
}

// Apply seeds the parts of the database that are still empty: scenes when
// there are none, items when the library is empty. Categories of seeded
// items are created as needed.
func Apply(ctx context.Context, uow unitOfWork, lib *Library, logger *slog.Logger) (Result, error) {
	var res Result
	err := uow.Write(ctx, func(st *store.Set) error {
		res = Result{}

		sceneCount, err := st.Scenes.Count(ctx)
		if err != nil {
			return err
		}
		if sceneCount == 0 {
			for _, name := range lib.Scenes {
				if _, err := st.Scenes.Create(ctx, name); err != nil {
					return err
				}
				res.Scenes++
			}
		}

		items, err := st.Items.List(ctx)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			return nil
		}

		categories := append([]string{}, lib.Categories...)
		for _, item := range lib.Items {
			categories = append(categories, item.Category)
		}
		for _, name := range categories {
			if name == "" || name == domain.DefaultCategory {
				continue
			}
			created, err := st.Categories.Ensure(ctx, name)
			if err != nil {
				return err
			}
			if created {
				res.Categories++
			}
		}

		for _, item := range lib.Items {
			if _, err := st.Items.Create(ctx, item.Name, item.Category, item.Description, ""); err != nil {
				return err
			}
			res.Items++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to seed database: %w", err)
	}

	if res != (Result{}) {
		logger.Info("database seeded", "scenes", res.Scenes, "categories", res.Categories, "items", res.Items)
	}
	return res, nil
}
