package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/mcprogress/internal/domain"
)

// Rewrite returns a copy of d with every item reference replaced by its
// image under mapping. References missing from mapping are kept. Nodes with
// nothing to replace keep their exact bytes; replaced nodes keep their key
// order. Edges and meta are copied unchanged and d is never modified.
func Rewrite(d domain.Diagram, mapping map[int64]int64) (domain.Diagram, error) {
	out := domain.Diagram{
		Nodes: make([]json.RawMessage, len(d.Nodes)),
		Edges: make([]json.RawMessage, len(d.Edges)),
		Meta:  cloneRaw(d.Meta),
	}
	for i, edge := range d.Edges {
		out.Edges[i] = cloneRaw(edge)
	}

	for i, raw := range d.Nodes {
		rewritten, err := rewriteNode(raw, mapping)
		if err != nil {
			return domain.Diagram{}, fmt.Errorf("node %d: %w", i, err)
		}
		out.Nodes[i] = rewritten
	}
	return out, nil
}

func rewriteNode(raw json.RawMessage, mapping map[int64]int64) (json.RawMessage, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}

	refs, err := nodeRefs(node)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, r := range refs {
		newID, ok := mapping[r.id]
		if !ok {
			continue
		}
		r.parent.Set(r.key, newID)
		changed = true
	}
	if !changed {
		return cloneRaw(raw), nil
	}

	var buf bytes.Buffer
	if err := encodeObject(&buf, node); err != nil {
		return nil, fmt.Errorf("failed to encode node: %w", err)
	}
	return buf.Bytes(), nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
