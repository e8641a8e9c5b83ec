// Package scenepack reads and writes scene packages: zip archives holding a
// manifest.json and the icon images of the exported items under icons/.
package scenepack

import (
	"github.com/vbonduro/mcprogress/internal/domain"
)

// Version is the manifest format version written by Encode. Decode reads the
// field but accepts any value.
const Version = 1

const (
	manifestEntry = "manifest.json"
	iconsDir      = "icons/"
)

type Manifest struct {
	Version    int            `json:"version"`
	Scene      SceneHeader    `json:"scene"`
	Graph      domain.Diagram `json:"graph"`
	Categories []string       `json:"categories"`
	Items      []ItemRecord   `json:"items"`
	Notes      Notes          `json:"notes"`
}

// SceneHeader describes the exported scene. CreatedAt is an ISO-8601 string
// and is kept as text so packages from other writers decode unchanged.
type SceneHeader struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ItemRecord is an exported item. IconPath is the item's icon path in the
// source library, "/uploads/<asset-name>", or empty.
type ItemRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IconPath    string `json:"icon_path"`
}

type Notes struct {
	ExportedAt string `json:"exported_at,omitempty"`
}

// RecordFromItem converts a library item to its manifest record.
func RecordFromItem(item *domain.Item) ItemRecord {
	return ItemRecord{
		ID:          item.ID,
		Name:        item.Name,
		Category:    item.Category,
		Description: item.Description,
		IconPath:    item.IconPath,
	}
}
