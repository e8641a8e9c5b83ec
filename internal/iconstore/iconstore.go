package iconstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// URLPrefix is the public path prefix of every stored icon.
const URLPrefix = "/uploads/"

var ErrNotFound = errors.New("icon not found")

// IconStore stores icon images. Icons are addressed by their public path,
// "/uploads/<name>".
type IconStore interface {
	Save(ctx context.Context, ext string, r io.Reader) (iconPath string, err error)
	Get(ctx context.Context, iconPath string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, iconPath string) error
}

var allowedExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// IsAllowedExt reports whether ext (with its leading dot) is an accepted icon type.
func IsAllowedExt(ext string) bool {
	_, ok := allowedExts[strings.ToLower(ext)]
	return ok
}

// NormalizeExt returns the lower-cased extension of name, or ".png" when the
// extension is not an accepted icon type.
func NormalizeExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if _, ok := allowedExts[ext]; !ok {
		return ".png"
	}
	return ext
}

// MimeType returns the content type for an icon name or path.
func MimeType(name string) string {
	if m, ok := allowedExts[strings.ToLower(path.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}

// PathFor returns the public icon path of a stored asset name.
func PathFor(name string) string {
	return URLPrefix + name
}

// AssetName returns the basename an icon path refers to. Paths outside
// URLPrefix are accepted as long as they end in a usable name.
func AssetName(iconPath string) (string, bool) {
	if iconPath == "" {
		return "", false
	}
	name := path.Base(strings.TrimPrefix(iconPath, URLPrefix))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", false
	}
	return name, true
}
