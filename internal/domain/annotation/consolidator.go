package annotation

import (
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

// Consolidation is the merged view of all annotation sources.
type Consolidation struct {
	// Unique lists every distinct structure string across all nodes in
	// first-seen order.
	Unique []string

	// PerNode maps each annotated node to its distinct structures.  Nodes
	// without any non-blank structure are absent.
	PerNode map[network.NodeID][]string

	order []network.NodeID
}

// Nodes returns the annotated nodes in first-seen order.
func (c *Consolidation) Nodes() []network.NodeID { return c.order }

// Consolidate merges tables with outer-join semantics on the node id: each
// node receives the union of the structures found for it in any table.
// Comma-joined cells are split, values are trimmed, blanks dropped and exact
// duplicates removed.
func Consolidate(tables ...Table) (*Consolidation, error) {
	sources := make([]Source, 0, len(tables))
	for _, t := range tables {
		src, err := Resolve(t)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return ConsolidateSources(sources...), nil
}

// ConsolidateSources is Consolidate over already-resolved sources.
func ConsolidateSources(sources ...Source) *Consolidation {
	c := &Consolidation{PerNode: make(map[network.NodeID][]string)}
	seenNode := make(map[network.NodeID]map[string]bool)
	seenGlobal := make(map[string]bool)

	for _, src := range sources {
		for _, e := range src.Entries {
			for _, raw := range e.Values {
				for _, s := range SplitStructures(raw) {
					set, ok := seenNode[e.Node]
					if !ok {
						set = make(map[string]bool)
						seenNode[e.Node] = set
						c.order = append(c.order, e.Node)
					}
					if set[s] {
						continue
					}
					set[s] = true
					c.PerNode[e.Node] = append(c.PerNode[e.Node], s)
					if !seenGlobal[s] {
						seenGlobal[s] = true
						c.Unique = append(c.Unique, s)
					}
				}
			}
		}
	}
	return c
}

// SplitStructures splits a comma-joined cell into non-blank structure
// strings with all spaces removed.
func SplitStructures(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if s := strings.TrimSpace(strings.ReplaceAll(part, " ", "")); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RemapToInChIKeys translates per-node structure strings into identity keys
// using smilesToKey.  Structures without a key are dropped; a node whose
// structures all lack keys is kept with an empty slice.  Two structures that
// share a key each contribute one entry.
func RemapToInChIKeys(perNode map[network.NodeID][]string, smilesToKey map[string]string) map[network.NodeID][]string {
	out := make(map[network.NodeID][]string, len(perNode))
	for node, structures := range perNode {
		keys := make([]string, 0, len(structures))
		for _, s := range structures {
			if k, ok := smilesToKey[s]; ok && k != "" {
				keys = append(keys, k)
			}
		}
		out[node] = keys
	}
	return out
}
