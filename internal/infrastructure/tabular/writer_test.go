package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
)

func TestPreventOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.tsv")
	assert.Equal(t, path, PreventOverwrite(path))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	next := filepath.Join(dir, "summary_annotated.tsv")
	assert.Equal(t, next, PreventOverwrite(path))

	require.NoError(t, os.WriteFile(next, nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "summary_annotated_annotated.tsv"), PreventOverwrite(path))

	bare := filepath.Join(dir, "noext")
	require.NoError(t, os.WriteFile(bare, nil, 0o644))
	assert.Equal(t, bare+AnnotatedSuffix, PreventOverwrite(bare))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, '\t', []string{"a", "b"}, [][]string{{"1", "x,y"}}))
	assert.Equal(t, "a\tb\n1\tx,y\n", buf.String())
}

func TestWriteFile_RoundTripsSummary(t *testing.T) {
	rows := []ontology.SummaryRow{{Node: 1, Family: "S1", FamilySize: 1}}
	for _, l := range ontology.AllLevels {
		rows[0].Levels[l] = ontology.FamilyScore{Family: "S1", Size: 1, Class: ontology.NoMatches}
	}
	header, out := SummaryRows(rows)

	dir := t.TempDir()
	path := filepath.Join(dir, "summary.tsv")
	written, err := WriteFile(path, header, out, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, path, written)

	again, err := WriteFile(path, header, out, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary_annotated.tsv"), again)

	same, err := WriteFile(path, header, out, WriteOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, path, same)

	tab, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, ontology.SummaryColumns(), tab.Header)
	require.Len(t, tab.Records, 1)
	assert.Equal(t, "S1", tab.Records[0][1])
	assert.Equal(t, "", tab.Records[0][4])
}

func TestWriteFile_UnwritableDir(t *testing.T) {
	_, err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.tsv"), []string{"a"}, nil, WriteOptions{})
	assert.Error(t, err)
}

func TestMotifRows(t *testing.T) {
	res := motif.Result{
		Motifs: []string{"motif_1"},
		Nodes: []motif.NodeSummary{{
			Node:        10,
			Assignments: []motif.Assignment{{Node: 10, Motif: "motif_1", Probability: 0.9, Overlap: 0.5}},
			Motifs:      []string{"motif_1"},
		}},
		Edges: []motif.AnnotatedEdge{{
			Edge:         network.Edge{Source: 10, Target: 11, Family: "3"},
			Interaction:  motif.InteractionCosine,
			SharedMotifs: []string{"motif_1"},
		}},
	}

	nh, nrows := MotifNodeRows(res)
	assert.Equal(t, "motif_1", nh[len(nh)-1])
	assert.Equal(t, "0.5", nrows[0][len(nrows[0])-1])

	eh, erows := MotifEdgeRows(res)
	assert.Len(t, erows[0], len(eh))
	assert.Equal(t, "cosine", erows[0][1])
}

func TestClassyRows(t *testing.T) {
	rec := ontology.NewStructureRecord("CCO", "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", map[ontology.Level]string{ontology.Kingdom: "Organic compounds"})
	header, rows := ClassyRows([]ontology.StructureRecord{rec})
	assert.Equal(t, ClassyColumns, header)
	assert.Equal(t, []string{"CCO", "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", "Organic compounds", "None", "None", "None", "None", "None"}, rows[0])
}
