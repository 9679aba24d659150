package classyfire

import (
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Node is one ChemOnt taxonomy node as embedded in an entity.
type Node struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ChemOntID   string `json:"chemont_id,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Entity is the classification of one structure.  Levels the service could
// not assign are null.
type Entity struct {
	Identifier         string   `json:"identifier,omitempty"`
	SMILES             string   `json:"smiles"`
	InChIKey           string   `json:"inchikey"`
	Kingdom            *Node    `json:"kingdom"`
	Superclass         *Node    `json:"superclass"`
	Class              *Node    `json:"class"`
	Subclass           *Node    `json:"subclass"`
	DirectParent       *Node    `json:"direct_parent"`
	IntermediateNodes  []Node   `json:"intermediate_nodes,omitempty"`
	AlternativeParents []Node   `json:"alternative_parents,omitempty"`
	MolecularFramework *string  `json:"molecular_framework"`
	Substituents       []string `json:"substituents,omitempty"`
	Description        string   `json:"description,omitempty"`
	ClassificationVer  string   `json:"classification_version,omitempty"`
}

// QueryResult is the state of a submitted query.
type QueryResult struct {
	ID                   int64    `json:"id"`
	Label                string   `json:"label"`
	ClassificationStatus string   `json:"classification_status"`
	NumberOfElements     int      `json:"number_of_elements"`
	NumberOfPages        int      `json:"number_of_pages"`
	InvalidEntities      []Entity `json:"invalid_entities,omitempty"`
	Entities             []Entity `json:"entities"`
}

// Query statuses reported by the service.
const (
	StatusInQueue    = "In Queue"
	StatusProcessing = "Processing"
	StatusDone       = "Done"
)

// Pending reports whether the query has not finished yet.
func (q *QueryResult) Pending() bool {
	return q.ClassificationStatus == StatusInQueue || q.ClassificationStatus == StatusProcessing
}

// TaxNode is a ChemOnt taxonomy node fetched by id.
type TaxNode struct {
	Name            string   `json:"name"`
	ChemOntID       string   `json:"chemont_id"`
	Description     string   `json:"description"`
	ParentChemOntID string   `json:"parent_chemont_id,omitempty"`
	Synonyms        []string `json:"synonyms,omitempty"`
	URL             string   `json:"url,omitempty"`
}

// ---------------------------------------------------------------------------
// Identity keys
// ---------------------------------------------------------------------------

const inchiKeyPrefix = "InChIKey="

// NormalizeKey strips the "InChIKey=" prefix and surrounding whitespace.
func NormalizeKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), inchiKeyPrefix)
}

// RelaxedKey drops the stereo and protonation blocks of an identity key,
// keeping the connectivity block: "AAA-BBB-C" becomes "AAA-UHFFFAOYSA-N".
func RelaxedKey(key string) string {
	return strings.SplitN(NormalizeKey(key), "-", 2)[0] + "-UHFFFAOYSA-N"
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// Empty reports whether the entity carries no classification at all.
func (e *Entity) Empty() bool {
	return e == nil || (e.Kingdom == nil && e.Superclass == nil && e.Class == nil &&
		e.Subclass == nil && e.DirectParent == nil && e.MolecularFramework == nil)
}

// Record flattens the entity into a structure record.  Null levels become
// ontology.Unclassified.
func (e *Entity) Record() ontology.StructureRecord {
	classes := map[ontology.Level]string{
		ontology.Kingdom:      nodeName(e.Kingdom),
		ontology.Superclass:   nodeName(e.Superclass),
		ontology.Class:        nodeName(e.Class),
		ontology.Subclass:     nodeName(e.Subclass),
		ontology.DirectParent: nodeName(e.DirectParent),
	}
	if e.MolecularFramework != nil {
		classes[ontology.MolecularFramework] = *e.MolecularFramework
	}
	smiles := e.SMILES
	if smiles == "" {
		smiles = ontology.Unclassified
	}
	return ontology.NewStructureRecord(smiles, NormalizeKey(e.InChIKey), classes)
}

func nodeName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Name
}
