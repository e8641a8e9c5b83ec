package scenepack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/zip"
	"github.com/vbonduro/mcprogress/internal/iconstore"
)

// MaxEntrySize caps the uncompressed size of any single archive entry.
const MaxEntrySize = 32 << 20

// AssetProvider resolves an item's icon path to image bytes. ok is false when
// the icon does not exist.
type AssetProvider interface {
	Asset(ctx context.Context, iconPath string) (data []byte, ok bool, err error)
}

// AssetProviderFunc adapts a function to AssetProvider.
type AssetProviderFunc func(ctx context.Context, iconPath string) ([]byte, bool, error)

func (f AssetProviderFunc) Asset(ctx context.Context, iconPath string) ([]byte, bool, error) {
	return f(ctx, iconPath)
}

// Encode writes m and the icons of its items into a zip archive. The manifest
// version is always set to Version. Items whose icon the provider cannot
// resolve get no icon entry; icons shared by several items are written once.
func Encode(ctx context.Context, m *Manifest, assets AssetProvider) ([]byte, error) {
	out := *m
	out.Version = Version
	out.Graph = out.Graph.Normalized()
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Items == nil {
		out.Items = []ItemRecord{}
	}

	var manifest bytes.Buffer
	enc := json.NewEncoder(&manifest)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := writeEntry(zw, manifestEntry, manifest.Bytes()); err != nil {
		return nil, err
	}

	written := make(map[string]bool)
	for _, item := range out.Items {
		name, ok := iconstore.AssetName(item.IconPath)
		if !ok || written[name] {
			continue
		}
		data, found, err := assets.Asset(ctx, item.IconPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read icon of item %d: %w", item.ID, err)
		}
		if !found {
			continue
		}
		if err := writeEntry(zw, iconsDir+name, data); err != nil {
			return nil, err
		}
		written[name] = true
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

// Assets gives access to the icon entries of a decoded archive.
type Assets struct {
	files map[string]*zip.File
}

// Lookup returns the archive bytes for an item record's icon path. ok is
// false when the path is empty or the archive has no such entry.
func (a *Assets) Lookup(iconPath string) ([]byte, bool, error) {
	name, ok := iconstore.AssetName(iconPath)
	if !ok || a == nil {
		return nil, false, nil
	}
	f, ok := a.files[name]
	if !ok {
		return nil, false, nil
	}
	data, err := readEntry(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Names lists the asset names present in the archive.
func (a *Assets) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	return names
}

// Decode reads an archive produced by Encode. Unreadable archives, a missing
// manifest.json and manifests that are not JSON fail with
// ErrMalformedPackage; manifests that do not match the schema fail with
// ErrInvalidManifest.
func Decode(data []byte) (*Manifest, *Assets, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}

	var manifestFile *zip.File
	assets := &Assets{files: make(map[string]*zip.File)}
	for _, f := range zr.File {
		switch {
		case f.Name == manifestEntry:
			manifestFile = f
		case path.Dir(f.Name)+"/" == iconsDir && !f.FileInfo().IsDir():
			assets.files[path.Base(f.Name)] = f
		}
	}
	if manifestFile == nil {
		return nil, nil, fmt.Errorf("%w: %s not found", ErrMalformedPackage, manifestEntry)
	}

	raw, err := readEntry(manifestFile)
	if err != nil {
		return nil, nil, err
	}
	if !json.Valid(raw) {
		return nil, nil, fmt.Errorf("%w: %s is not valid JSON", ErrMalformedPackage, manifestEntry)
	}
	if err := validateManifest(raw); err != nil {
		return nil, nil, err
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	m.Graph = m.Graph.Normalized()
	return &m, assets, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, fmt.Errorf("%w: entry %s is too large", ErrMalformedPackage, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrMalformedPackage, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrMalformedPackage, f.Name, err)
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("%w: entry %s is too large", ErrMalformedPackage, f.Name)
	}
	return data, nil
}

// IsPackageError reports whether err is one of the package content errors.
func IsPackageError(err error) bool {
	return errors.Is(err, ErrMalformedPackage) || errors.Is(err, ErrInvalidManifest)
}
