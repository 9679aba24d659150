package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

func gnpsTable() Table {
	return Table{
		Name:   "gnps",
		Header: []string{"#Scan#", "Compound_Name", "Smiles"},
		Records: [][]string{
			{"1", "ethanol", "CCO"},
			{"2", "unknown", " "},
			{"3", "mix", "CCN, CCO"},
		},
	}
}

func napTable() Table {
	return Table{
		Name:   "nap",
		Header: []string{"cluster.index", "MetFragSMILES", "FusionSMILES", "ConsensusSMILES"},
		Records: [][]string{
			{"3", "CCC", "IGNORED", "IGNORED"},
			{"4", "c1ccccc1", "", ""},
		},
	}
}

func TestConsolidate_OuterJoinUnion(t *testing.T) {
	c, err := Consolidate(gnpsTable(), napTable())
	require.NoError(t, err)

	assert.Equal(t, []string{"CCO"}, c.PerNode[1])
	assert.Equal(t, []string{"CCN", "CCO", "CCC"}, c.PerNode[3])
	assert.Equal(t, []string{"c1ccccc1"}, c.PerNode[4])
	assert.Equal(t, []network.NodeID{1, 3, 4}, c.Nodes())
	assert.Equal(t, []string{"CCO", "CCN", "CCC", "c1ccccc1"}, c.Unique)
	assert.NotContains(t, c.Unique, "IGNORED")
}

func TestConsolidate_RemovesInternalSpaces(t *testing.T) {
	c, err := Consolidate(Table{
		Name:    "gnps",
		Header:  []string{"Scan", "Smiles"},
		Records: [][]string{{"1", "C C O, CCN"}, {"2", "CCO"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CCO", "CCN"}, c.Unique)
	assert.Equal(t, []string{"CCO", "CCN"}, c.PerNode[1])
	assert.Equal(t, []string{"CCO"}, c.PerNode[2])
}

func TestConsolidate_BlankNodesAreAbsent(t *testing.T) {
	c, err := Consolidate(gnpsTable())
	require.NoError(t, err)

	_, ok := c.PerNode[2]
	assert.False(t, ok, "node with only blank values must be absent, not empty")
}

func TestConsolidate_Completeness(t *testing.T) {
	c, err := Consolidate(gnpsTable(), napTable())
	require.NoError(t, err)

	for _, tbl := range []Table{gnpsTable(), napTable()} {
		src, err := Resolve(tbl)
		require.NoError(t, err)
		for _, e := range src.Entries {
			hasValue := false
			for _, v := range e.Values {
				if len(SplitStructures(v)) > 0 {
					hasValue = true
				}
			}
			_, present := c.PerNode[e.Node]
			assert.Equal(t, hasValue, present, "node %d", e.Node)
		}
	}
}

func TestConsolidate_Idempotent(t *testing.T) {
	once, err := Consolidate(gnpsTable())
	require.NoError(t, err)
	twice, err := Consolidate(gnpsTable(), gnpsTable())
	require.NoError(t, err)

	assert.ElementsMatch(t, once.Unique, twice.Unique)
	assert.Equal(t, once.PerNode, twice.PerNode)
}

func TestConsolidate_TableWithoutStructureColumns(t *testing.T) {
	empty := Table{
		Name:    "sirius",
		Header:  []string{"scans", "formula"},
		Records: [][]string{{"1", "C2H6O"}, {"9", "CH4"}},
	}
	c, err := Consolidate(gnpsTable(), empty)
	require.NoError(t, err)

	_, ok := c.PerNode[9]
	assert.False(t, ok)
	assert.Equal(t, []string{"CCO"}, c.PerNode[1])
}

func TestConsolidate_MissingNodeIDColumn(t *testing.T) {
	_, err := Consolidate(Table{Name: "bad", Header: []string{"Smiles"}, Records: [][]string{{"CCO"}}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTableMissingColumn))
}

func TestResolve_InvalidNodeID(t *testing.T) {
	_, err := Resolve(Table{Name: "bad", Header: []string{"Scan", "Smiles"}, Records: [][]string{{"x", "CCO"}}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidNodeID))
}

func TestResolve_ShortRecords(t *testing.T) {
	src, err := Resolve(Table{
		Name:    "short",
		Header:  []string{"Scan", "Smiles", "MetFragSMILES"},
		Records: [][]string{{"5", "CCO"}, {}},
	})
	require.NoError(t, err)
	require.Len(t, src.Entries, 1)
	assert.Equal(t, []string{"CCO"}, src.Entries[0].Values)
}

func TestIsStructureColumn(t *testing.T) {
	assert.True(t, IsStructureColumn("Smiles"))
	assert.True(t, IsStructureColumn("MetFragSMILES"))
	assert.False(t, IsStructureColumn("FusionSMILES"))
	assert.False(t, IsStructureColumn("ConsensusSMILES"))
	assert.False(t, IsStructureColumn("InChIKey"))
}

func TestRemapToInChIKeys(t *testing.T) {
	perNode := map[network.NodeID][]string{
		1: {"CCO", "OCC"},
		2: {"CCN"},
	}
	keys := map[string]string{
		"CCO": "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
		"OCC": "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
	}

	got := RemapToInChIKeys(perNode, keys)
	assert.Equal(t, []string{"LFQSCWFLJHTTHZ-UHFFFAOYSA-N", "LFQSCWFLJHTTHZ-UHFFFAOYSA-N"}, got[1])
	assert.Empty(t, got[2])
	_, ok := got[2]
	assert.True(t, ok)
}
