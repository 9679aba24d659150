// Package network holds the molecular-network vocabulary shared by the
// consolidation, scoring and motif-mapping stages: node and family
// identifiers, node-table rows, similarity edges and the per-run family
// partition.
package network

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// NodeID is the GNPS "cluster index" of a spectral feature.
type NodeID int64

// String renders the id the way GNPS tables do.
func (id NodeID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseNodeID parses a node identifier cell.  Spreadsheet exports sometimes
// render integer ids as "10.0", which is accepted.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NodeID(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errors.New(errors.CodeInvalidNodeID, "node id is not an integer").WithDetail(fmt.Sprintf("value=%q", s))
	}
	return NodeID(int64(f)), nil
}

// FamilyID identifies a molecular family.  Real component indices are
// rendered in decimal; singleton families get synthetic ids "S1", "S2", ...
// which can never be parsed back as a component index.
type FamilyID string

// UnclusteredComponent marks a node or edge that belongs to no molecular
// family in the GNPS tables.
const UnclusteredComponent int64 = -1

// ComponentFamily converts a GNPS component index to a FamilyID.
func ComponentFamily(component int64) FamilyID {
	return FamilyID(strconv.FormatInt(component, 10))
}

// SingletonFamily returns the k-th synthetic singleton family id (1-based).
func SingletonFamily(k int) FamilyID {
	return FamilyID(fmt.Sprintf("S%d", k))
}

// IsSingleton reports whether f is a synthetic singleton id.
func (f FamilyID) IsSingleton() bool {
	return strings.HasPrefix(string(f), "S")
}

// IsUnclustered reports whether f is the raw "-1" component id.
func (f FamilyID) IsUnclustered() bool {
	return f == ComponentFamily(UnclusteredComponent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Node and edge records
// ─────────────────────────────────────────────────────────────────────────────

// NodeRow is one row of the GNPS node table.  Component is
// UnclusteredComponent when the node belongs to no family or the column was
// empty.
type NodeRow struct {
	ID        NodeID
	Component int64
}

// Edge is an undirected similarity relation from the GNPS edge table.
// MEH and OtherScore are 0.0 when the source table lacks those columns.
type Edge struct {
	Source     NodeID
	Target     NodeID
	DeltaMZ    float64
	MEH        float64
	Cosine     float64
	OtherScore float64
	Family     FamilyID

	// Annotation carries the optional EdgeAnnotation column.
	Annotation    string
	HasAnnotation bool
}

// IsSelfLoop reports whether both endpoints are the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Membership ties a node to the family it is scored in.
type Membership struct {
	Node   NodeID
	Family FamilyID
}
