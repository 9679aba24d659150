// Package annotation merges structure annotations from several sources
// (GNPS library matches, NAP, DEREPLICATOR, SIRIUS/CSI:FingerID) into one
// set of candidate structures per network node.
package annotation

import (
	"fmt"
	"regexp"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// NodeIDColumns are the header names recognized as the node identifier, in
// lookup order.
var NodeIDColumns = []string{"cluster.index", "cluster index", "Scan", "#Scan#", "scans"}

// structureColumn matches structure-string column headers.
var structureColumn = regexp.MustCompile(`Smiles|SMILES`)

// consensusColumns are derived summaries of other structure columns and are
// never treated as an annotation source.
var consensusColumns = map[string]bool{
	"FusionSMILES":    true,
	"ConsensusSMILES": true,
}

// Table is one raw annotation table as read from disk.
type Table struct {
	Name    string
	Header  []string
	Records [][]string
}

// Entry is one row of a resolved table: a node and the raw values of all its
// structure columns, in column order.
type Entry struct {
	Node   network.NodeID
	Values []string
}

// Source is a Table whose node-id and structure columns have been resolved.
type Source struct {
	Name             string
	StructureColumns []string
	Entries          []Entry
}

// IsStructureColumn reports whether header names a structure column that
// contributes to consolidation.
func IsStructureColumn(header string) bool {
	return !consensusColumns[header] && structureColumn.MatchString(header)
}

// Resolve locates the node-id column and the structure columns of t.  A
// table without structure columns resolves to a Source with no values; a
// table without a node-id column is an error.
func Resolve(t Table) (Source, error) {
	idCol := -1
	for _, name := range NodeIDColumns {
		for i, h := range t.Header {
			if h == name {
				idCol = i
				break
			}
		}
		if idCol >= 0 {
			break
		}
	}
	if idCol < 0 {
		return Source{}, errors.New(errors.CodeTableMissingColumn, "annotation table has no node id column").
			WithDetail(fmt.Sprintf("table=%s", t.Name))
	}

	src := Source{Name: t.Name}
	var cols []int
	for i, h := range t.Header {
		if i != idCol && IsStructureColumn(h) {
			cols = append(cols, i)
			src.StructureColumns = append(src.StructureColumns, h)
		}
	}

	for line, rec := range t.Records {
		if idCol >= len(rec) {
			continue
		}
		node, err := network.ParseNodeID(rec[idCol])
		if err != nil {
			return Source{}, errors.Wrap(err, errors.CodeTableParseFailed, "invalid node id in annotation table").
				WithDetail(fmt.Sprintf("table=%s row=%d", t.Name, line+1))
		}
		e := Entry{Node: node}
		for _, c := range cols {
			if c < len(rec) {
				e.Values = append(e.Values, rec[c])
			}
		}
		src.Entries = append(src.Entries, e)
	}
	return src, nil
}
