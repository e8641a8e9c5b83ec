package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vbonduro/mcprogress/internal/iconstore"
)

// LocalIconStore keeps icons as flat files in one directory.
type LocalIconStore struct {
	basePath string
}

func NewLocalIconStore(basePath string) (*LocalIconStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon directory: %w", err)
	}
	return &LocalIconStore{basePath: basePath}, nil
}

// Save writes r under a new random name with the given extension. Unknown
// extensions are stored as .png.
func (s *LocalIconStore) Save(ctx context.Context, ext string, r io.Reader) (string, error) {
	if !iconstore.IsAllowedExt(ext) {
		ext = ".png"
	}
	filename := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(ext)
	filePath := filepath.Join(s.basePath, filename)

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return iconstore.PathFor(filename), nil
}

func (s *LocalIconStore) Get(ctx context.Context, iconPath string) (io.ReadCloser, string, error) {
	filePath, err := s.resolve(iconPath)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", iconstore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, iconstore.MimeType(filePath), nil
}

func (s *LocalIconStore) Delete(ctx context.Context, iconPath string) error {
	filePath, err := s.resolve(iconPath)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return iconstore.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalIconStore) resolve(iconPath string) (string, error) {
	if !strings.HasPrefix(iconPath, iconstore.URLPrefix) {
		return "", fmt.Errorf("%w: %q is not an upload path", iconstore.ErrNotFound, iconPath)
	}
	return s.safeJoin(strings.TrimPrefix(iconPath, iconstore.URLPrefix))
}

// safeJoin resolves name relative to basePath and rejects directory traversal.
func (s *LocalIconStore) safeJoin(name string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, name))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal attempt in %q", iconstore.ErrNotFound, name)
	}
	return absPath, nil
}
