package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

func TestAggregate_EndToEndScenario(t *testing.T) {
	rows := []network.NodeRow{
		{ID: 10, Component: 1},
		{ID: 11, Component: 1},
		{ID: 12, Component: 1},
	}
	records := []StructureRecord{
		NewStructureRecord("CCO", "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", map[Level]string{Kingdom: "Organic compounds"}),
		UnclassifiedRecord("CCN", "QUSNBJAOOMFDIB-UHFFFAOYSA-N"),
	}
	perNode := map[network.NodeID][]string{
		10: {"LFQSCWFLJHTTHZ-UHFFFAOYSA-N"},
		11: {"QUSNBJAOOMFDIB-UHFFFAOYSA-N"},
	}

	got := Aggregate(rows, BuildLookups(records), perNode)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, network.FamilyID("1"), r.Family)
		assert.Equal(t, 3, r.FamilySize)
		assert.Equal(t, "Organic compounds", r.Levels[Kingdom].Class)
		assert.InDelta(t, 1.0/3.0, r.Levels[Kingdom].Score, 1e-12)
		assert.Equal(t, NoMatches, r.Levels[Superclass].Class)
		assert.False(t, r.Levels[Superclass].HasScore)
	}
	assert.Equal(t, got[0].Levels, got[2].Levels)
}

func TestAggregate_SingletonsAreNeverPooled(t *testing.T) {
	rows := []network.NodeRow{
		{ID: 1, Component: network.UnclusteredComponent},
		{ID: 2, Component: network.UnclusteredComponent},
	}
	lookups := BuildLookups([]StructureRecord{
		NewStructureRecord("a", "K1", map[Level]string{Kingdom: "Organic compounds"}),
	})
	perNode := map[network.NodeID][]string{1: {"K1"}}

	got := Aggregate(rows, lookups, perNode)
	require.Len(t, got, 2)
	assert.Equal(t, network.FamilyID("S1"), got[0].Family)
	assert.Equal(t, network.FamilyID("S2"), got[1].Family)
	assert.Equal(t, 1, got[0].FamilySize)
	assert.InDelta(t, 1.0, got[0].Levels[Kingdom].Score, 1e-12)
	assert.Equal(t, NoMatches, got[1].Levels[Kingdom].Class)
}

func TestSummaryRow_ValuesAndAttributes(t *testing.T) {
	row := SummaryRow{Node: 10, Family: "1", FamilySize: 3}
	for _, l := range AllLevels {
		row.Levels[l] = FamilyScore{Family: "1", Size: 3, Class: NoMatches}
	}
	row.Levels[Kingdom] = FamilyScore{Family: "1", Size: 3, Class: "Organic compounds", Score: 0.5, HasScore: true}

	cols := SummaryColumns()
	vals := row.Values()
	require.Len(t, cols, 15)
	require.Len(t, vals, len(cols))
	assert.Equal(t, "cluster index", cols[0])
	assert.Equal(t, "CF_kingdom_score", cols[4])
	assert.Equal(t, "CF_MFramework_score", cols[14])
	assert.Equal(t, []string{"10", "1", "3", "Organic compounds", "0.5", "no matches", ""}, vals[:7])

	attrs := row.Attributes()
	assert.Equal(t, "1", attrs["CF_componentindex"])
	assert.Equal(t, 3.0, attrs["CF_NrNodes"])
	assert.Equal(t, 0.5, attrs["CF_kingdom_score"])
	_, hasScore := attrs["CF_superclass_score"]
	assert.False(t, hasScore)
	assert.Equal(t, NoMatches, attrs["CF_superclass"])
}
