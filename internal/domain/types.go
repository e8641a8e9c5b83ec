package domain

import (
	"encoding/json"
	"time"
)

// DefaultCategory is assigned to items created without a category and to items
// whose category is deleted.
const DefaultCategory = "Custom"

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IconPath    string    `json:"icon_path"`
	CreatedAt   time.Time `json:"created_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Scene struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Diagram is the node/edge graph drawn on a scene. Nodes, edges and meta are
// kept as raw JSON so that whatever the editor stored is written back unchanged.
type Diagram struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges []json.RawMessage `json:"edges"`
	Meta  json.RawMessage   `json:"meta"`
}

// EmptyDiagram returns a diagram with no nodes, no edges and empty meta.
func EmptyDiagram() Diagram {
	return Diagram{
		Nodes: []json.RawMessage{},
		Edges: []json.RawMessage{},
		Meta:  json.RawMessage(`{}`),
	}
}

// Normalized fills nil collections so the diagram always serializes to
// {"nodes":[],"edges":[],"meta":{}} rather than nulls.
func (d Diagram) Normalized() Diagram {
	if d.Nodes == nil {
		d.Nodes = []json.RawMessage{}
	}
	if d.Edges == nil {
		d.Edges = []json.RawMessage{}
	}
	if len(d.Meta) == 0 || string(d.Meta) == "null" {
		d.Meta = json.RawMessage(`{}`)
	}
	return d
}
