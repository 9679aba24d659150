package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/annotation"
	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// GNPS and MS2LDA column names.
const (
	ColClusterIndex   = "cluster index"
	ColComponentIndex = "componentindex"
	ColClusterID1     = "CLUSTERID1"
	ColClusterID2     = "CLUSTERID2"
	ColDeltaMZ        = "DeltaMZ"
	ColMEH            = "MEH"
	ColCosine         = "Cosine"
	ColOtherScore     = "OtherScore"
	ColEdgeComponent  = "ComponentIndex"
	ColEdgeAnnotation = "EdgeAnnotation"

	ColScans         = "scans"
	ColMotif         = "motif"
	ColProbability   = "probability"
	ColOverlap       = "overlap"
	ColPrecursorMass = "precursormass"
	ColParentRT      = "parentrt"
	ColDocument      = "document"
)

func parseErr(table string, row int, col, value string, cause error) error {
	return errors.Wrap(cause, errors.CodeTableParseFailed, "invalid cell").
		WithDetail(fmt.Sprintf("%s row %d column %s value %q", table, row+2, col, value))
}

// parseFloat parses an optional numeric cell; blanks read as 0.
func parseFloat(table string, row int, col, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, parseErr(table, row, col, s, err)
	}
	return v, nil
}

// parseComponent parses a component index; blanks read as unclustered.
func parseComponent(table string, row int, col, s string) (int64, error) {
	if s == "" {
		return network.UnclusteredComponent, nil
	}
	id, err := network.ParseNodeID(s)
	if err != nil {
		return 0, parseErr(table, row, col, s, err)
	}
	return int64(id), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Node table
// ─────────────────────────────────────────────────────────────────────────────

// ReadNodes loads a GNPS node table.
func ReadNodes(path string) ([]network.NodeRow, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return ParseNodes(t)
}

// ParseNodes extracts node ids and component indices.  A blank component
// index reads as unclustered.
func ParseNodes(t annotation.Table) ([]network.NodeRow, error) {
	cols := indexColumns(t)
	idCol, err := cols.require(append([]string{ColClusterIndex}, annotation.NodeIDColumns...)...)
	if err != nil {
		return nil, err
	}
	compCol, err := cols.require(ColComponentIndex, ColEdgeComponent)
	if err != nil {
		return nil, err
	}

	rows := make([]network.NodeRow, 0, len(t.Records))
	for i, rec := range t.Records {
		raw := cell(rec, idCol)
		if raw == "" {
			continue
		}
		id, err := network.ParseNodeID(raw)
		if err != nil {
			return nil, parseErr(t.Name, i, t.Header[idCol], raw, err)
		}
		comp, err := parseComponent(t.Name, i, ColComponentIndex, cell(rec, compCol))
		if err != nil {
			return nil, err
		}
		rows = append(rows, network.NodeRow{ID: id, Component: comp})
	}
	return rows, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Edge table
// ─────────────────────────────────────────────────────────────────────────────

// EdgeTable is a parsed GNPS edge table.
type EdgeTable struct {
	Edges []network.Edge
	// HasAnnotation reports whether the EdgeAnnotation column was present.
	HasAnnotation bool
}

// ReadEdges loads a GNPS edge table.
func ReadEdges(path string) (EdgeTable, error) {
	t, err := ReadTable(path)
	if err != nil {
		return EdgeTable{}, err
	}
	return ParseEdges(t)
}

// ParseEdges extracts similarity edges.  MEH and OtherScore default to 0.0
// when absent.
func ParseEdges(t annotation.Table) (EdgeTable, error) {
	cols := indexColumns(t)
	srcCol, err := cols.require(ColClusterID1)
	if err != nil {
		return EdgeTable{}, err
	}
	dstCol, err := cols.require(ColClusterID2)
	if err != nil {
		return EdgeTable{}, err
	}
	compCol, err := cols.require(ColEdgeComponent, ColComponentIndex)
	if err != nil {
		return EdgeTable{}, err
	}
	annCol, hasAnn := cols.find(ColEdgeAnnotation)

	floatCols := []string{ColDeltaMZ, ColMEH, ColCosine, ColOtherScore}
	floatIdx := make([]int, len(floatCols))
	for i, c := range floatCols {
		floatIdx[i], _ = cols.find(c)
	}

	out := EdgeTable{Edges: make([]network.Edge, 0, len(t.Records)), HasAnnotation: hasAnn}
	for i, rec := range t.Records {
		src, err := network.ParseNodeID(cell(rec, srcCol))
		if err != nil {
			return EdgeTable{}, parseErr(t.Name, i, ColClusterID1, cell(rec, srcCol), err)
		}
		dst, err := network.ParseNodeID(cell(rec, dstCol))
		if err != nil {
			return EdgeTable{}, parseErr(t.Name, i, ColClusterID2, cell(rec, dstCol), err)
		}
		comp, err := parseComponent(t.Name, i, ColEdgeComponent, cell(rec, compCol))
		if err != nil {
			return EdgeTable{}, err
		}

		var scores [4]float64
		for j, c := range floatCols {
			if scores[j], err = parseFloat(t.Name, i, c, cell(rec, floatIdx[j])); err != nil {
				return EdgeTable{}, err
			}
		}

		e := network.Edge{
			Source:     src,
			Target:     dst,
			DeltaMZ:    scores[0],
			MEH:        scores[1],
			Cosine:     scores[2],
			OtherScore: scores[3],
			Family:     network.ComponentFamily(comp),
		}
		if hasAnn {
			e.Annotation = cell(rec, annCol)
			e.HasAnnotation = true
		}
		out.Edges = append(out.Edges, e)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Motif summary
// ─────────────────────────────────────────────────────────────────────────────

// ReadMotifs loads an MS2LDA motif summary table.
func ReadMotifs(path string) ([]motif.Assignment, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return ParseMotifs(t)
}

// ParseMotifs extracts motif assignments.  The mass, retention time and
// document columns are optional.
func ParseMotifs(t annotation.Table) ([]motif.Assignment, error) {
	cols := indexColumns(t)
	scanCol, err := cols.require(ColScans, "Scan", "scan")
	if err != nil {
		return nil, err
	}
	motifCol, err := cols.require(ColMotif)
	if err != nil {
		return nil, err
	}
	probCol, err := cols.require(ColProbability)
	if err != nil {
		return nil, err
	}
	overlapCol, err := cols.require(ColOverlap)
	if err != nil {
		return nil, err
	}
	massCol, _ := cols.find(ColPrecursorMass)
	rtCol, _ := cols.find(ColParentRT)
	docCol, _ := cols.find(ColDocument)

	out := make([]motif.Assignment, 0, len(t.Records))
	for i, rec := range t.Records {
		id, err := network.ParseNodeID(cell(rec, scanCol))
		if err != nil {
			return nil, parseErr(t.Name, i, ColScans, cell(rec, scanCol), err)
		}
		a := motif.Assignment{Node: id, Motif: cell(rec, motifCol), Document: cell(rec, docCol)}
		if a.Probability, err = parseFloat(t.Name, i, ColProbability, cell(rec, probCol)); err != nil {
			return nil, err
		}
		if a.Overlap, err = parseFloat(t.Name, i, ColOverlap, cell(rec, overlapCol)); err != nil {
			return nil, err
		}
		if a.PrecursorMass, err = parseFloat(t.Name, i, ColPrecursorMass, cell(rec, massCol)); err != nil {
			return nil, err
		}
		if a.RetentionTime, err = parseFloat(t.Name, i, ColParentRT, cell(rec, rtCol)); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ClassyFire table
// ─────────────────────────────────────────────────────────────────────────────

// ClassyColumns is the header of a ClassyFire structure table.
var ClassyColumns = []string{"smiles", "inchikey", "kingdom", "superclass", "class", "subclass", "direct_parent", "molecular_framework"}

// ReadClassyTable loads a ClassyFire structure table.
func ReadClassyTable(path string) ([]ontology.StructureRecord, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return ParseClassyTable(t)
}

// ParseClassyTable extracts structure records.  Level columns that are
// missing or blank read as unclassified; "CF_class" is accepted for "class".
func ParseClassyTable(t annotation.Table) ([]ontology.StructureRecord, error) {
	cols := indexColumns(t)
	keyCol, err := cols.require("inchikey", "InChIKey")
	if err != nil {
		return nil, err
	}
	smilesCol, _ := cols.find("smiles", "SMILES")

	var levelCols [ontology.NumLevels]int
	for _, l := range ontology.AllLevels {
		names := []string{l.String()}
		if l == ontology.Class {
			names = append(names, "CF_class")
		}
		levelCols[l], _ = cols.find(names...)
	}

	out := make([]ontology.StructureRecord, 0, len(t.Records))
	for _, rec := range t.Records {
		key := trimKeyPrefix(cell(rec, keyCol))
		if key == "" {
			continue
		}
		classes := make(map[ontology.Level]string, ontology.NumLevels)
		for _, l := range ontology.AllLevels {
			if v := cell(rec, levelCols[l]); v != "" && v != "nan" {
				classes[l] = v
			}
		}
		smiles := cell(rec, smilesCol)
		if smiles == "" {
			smiles = ontology.Unclassified
		}
		out = append(out, ontology.NewStructureRecord(smiles, key, classes))
	}
	return out, nil
}

func trimKeyPrefix(s string) string {
	return strings.TrimPrefix(s, "InChIKey=")
}

// ReadStructureMap loads a two-column mapping (SMILES to identity key) from a
// ClassyFire structure table.  Rows without both values are skipped.
func ReadStructureMap(path string) (map[string]string, error) {
	records, err := ReadClassyTable(path)
	if err != nil {
		return nil, err
	}
	return StructureMap(records), nil
}

// StructureMap indexes records by SMILES.  Records without a SMILES or an
// identity key are skipped.
func StructureMap(records []ontology.StructureRecord) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		if r.SMILES == "" || r.SMILES == ontology.Unclassified || r.InChIKey == "" || r.InChIKey == ontology.Unclassified {
			continue
		}
		m[r.SMILES] = r.InChIKey
	}
	return m
}
