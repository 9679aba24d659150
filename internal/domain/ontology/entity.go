// Package ontology scores molecular families against the six flat levels of
// the ClassyFire chemical ontology.  Each level is an independent categorical
// label space; no tree semantics are applied between levels.
package ontology

import (
	"fmt"
)

// ─────────────────────────────────────────────────────────────────────────────
// Levels
// ─────────────────────────────────────────────────────────────────────────────

// Level is one of the six fixed ontology ranks.
type Level int

const (
	Kingdom Level = iota
	Superclass
	Class
	Subclass
	DirectParent
	MolecularFramework
)

// NumLevels is the number of ontology levels scored per family.
const NumLevels = 6

// AllLevels lists the levels in rank order.
var AllLevels = [NumLevels]Level{Kingdom, Superclass, Class, Subclass, DirectParent, MolecularFramework}

var levelNames = [NumLevels]string{
	"kingdom", "superclass", "class", "subclass", "direct_parent", "molecular_framework",
}

var levelColumns = [NumLevels]string{
	"CF_kingdom", "CF_superclass", "CF_class", "CF_subclass", "CF_Dparent", "CF_MFramework",
}

// Valid reports whether l is one of the six levels.
func (l Level) Valid() bool { return l >= Kingdom && l <= MolecularFramework }

// String returns the ClassyFire field name of the level.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Column returns the summary-table column holding the level's class name.
func (l Level) Column() string { return levelColumns[l] }

// ScoreColumn returns the summary-table column holding the level's score.
func (l Level) ScoreColumn() string { return levelColumns[l] + "_score" }

// ParseLevel resolves a ClassyFire field name to a Level.
func ParseLevel(name string) (Level, bool) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), true
		}
	}
	return 0, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Structure records
// ─────────────────────────────────────────────────────────────────────────────

// Unclassified is the sentinel class name of a level with no classification.
const Unclassified = "None"

// NoMatches is the class reported for a family without any classified node.
const NoMatches = "no matches"

// StructureRecord is a structure, its identity key and its class at every
// level.  Levels without a class hold Unclassified; a record is never
// partially populated.
type StructureRecord struct {
	SMILES   string
	InChIKey string
	Classes  [NumLevels]string
}

// NewStructureRecord builds a record, defaulting every level missing from
// classes (or given as empty) to Unclassified.
func NewStructureRecord(smiles, inchikey string, classes map[Level]string) StructureRecord {
	r := UnclassifiedRecord(smiles, inchikey)
	for l, c := range classes {
		if l.Valid() && c != "" {
			r.Classes[l] = c
		}
	}
	return r
}

// UnclassifiedRecord returns a record with every level set to Unclassified.
func UnclassifiedRecord(smiles, inchikey string) StructureRecord {
	r := StructureRecord{SMILES: smiles, InChIKey: inchikey}
	for i := range r.Classes {
		r.Classes[i] = Unclassified
	}
	return r
}

// Class returns the class name at level l.
func (r StructureRecord) Class(l Level) string { return r.Classes[l] }

// IsClassified reports whether level l carries a real class name.
func (r StructureRecord) IsClassified(l Level) bool {
	c := r.Classes[l]
	return c != "" && c != Unclassified
}

// ─────────────────────────────────────────────────────────────────────────────
// Classification outcomes
// ─────────────────────────────────────────────────────────────────────────────

// Status discriminates the outcome of resolving one identity key.
type Status int

const (
	// StatusClassified means the service returned a record for the key.
	StatusClassified Status = iota
	// StatusUnclassified means the service knows no entity for the key.
	StatusUnclassified
	// StatusLookupFailed means every attempt failed with a transport or
	// decoding error.
	StatusLookupFailed
)

func (s Status) String() string {
	switch s {
	case StatusClassified:
		return "classified"
	case StatusUnclassified:
		return "unclassified"
	case StatusLookupFailed:
		return "lookup_failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Classification is the result of resolving one identity key.
type Classification struct {
	Key    string
	Status Status
	Record StructureRecord
	Reason string
}

// NewClassified wraps a resolved record.
func NewClassified(key string, rec StructureRecord) Classification {
	return Classification{Key: key, Status: StatusClassified, Record: rec}
}

// NewUnclassified reports a key with no entity.
func NewUnclassified(key string) Classification {
	return Classification{Key: key, Status: StatusUnclassified, Record: UnclassifiedRecord(Unclassified, key)}
}

// NewLookupFailed reports a key whose lookups all failed.
func NewLookupFailed(key, reason string) Classification {
	return Classification{Key: key, Status: StatusLookupFailed, Record: UnclassifiedRecord(Unclassified, key), Reason: reason}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// Lookup maps an identity key to its class name at one level.
type Lookup map[string]string

// Lookups holds one Lookup per level.
type Lookups [NumLevels]Lookup

// BuildLookups indexes records by identity key.  Unclassified levels are not
// indexed, so such structures cast no vote at that level.  When two records
// share a key the later one wins.
func BuildLookups(records []StructureRecord) Lookups {
	var ls Lookups
	for i := range ls {
		ls[i] = make(Lookup)
	}
	for _, r := range records {
		if r.InChIKey == "" || r.InChIKey == Unclassified {
			continue
		}
		for _, l := range AllLevels {
			if r.IsClassified(l) {
				ls[l][r.InChIKey] = r.Classes[l]
			}
		}
	}
	return ls
}
