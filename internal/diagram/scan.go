package diagram

import (
	"fmt"

	"github.com/vbonduro/mcprogress/internal/domain"
)

// Scan returns the distinct item ids referenced by the diagram's nodes in the
// order they are first seen. Nodes without a reference contribute nothing.
func Scan(d domain.Diagram) ([]int64, error) {
	seen := make(map[int64]struct{})
	ids := []int64{}
	for i, raw := range d.Nodes {
		node, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		refs, err := nodeRefs(node)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		for _, r := range refs {
			if _, dup := seen[r.id]; dup {
				continue
			}
			seen[r.id] = struct{}{}
			ids = append(ids, r.id)
		}
	}
	return ids, nil
}
