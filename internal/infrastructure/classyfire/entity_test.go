package classyfire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "ATUOYWHBWRKTHZ-UHFFFAOYSA-N", NormalizeKey(" InChIKey=ATUOYWHBWRKTHZ-UHFFFAOYSA-N "))
	assert.Equal(t, "ATUOYWHBWRKTHZ-UHFFFAOYSA-N", NormalizeKey("ATUOYWHBWRKTHZ-UHFFFAOYSA-N"))
}

func TestRelaxedKey(t *testing.T) {
	assert.Equal(t, "RYYVLZVUVIJVGH-UHFFFAOYSA-N", RelaxedKey("RYYVLZVUVIJVGH-UHFFFAOYSA-O"))
	assert.Equal(t, "BSYNRYMUTXBXSQ-UHFFFAOYSA-N", RelaxedKey("InChIKey=BSYNRYMUTXBXSQ-WDSKDSINSA-N"))
	assert.Equal(t, "NOBLOCKS-UHFFFAOYSA-N", RelaxedKey("NOBLOCKS"))
}

func TestEntity_EmptyAndRecord(t *testing.T) {
	var e Entity
	require.NoError(t, json.Unmarshal([]byte(`{}`), &e))
	assert.True(t, e.Empty())

	rec := e.Record()
	assert.Equal(t, ontology.Unclassified, rec.SMILES)
	for _, l := range ontology.AllLevels {
		assert.False(t, rec.IsClassified(l))
	}

	var nilEntity *Entity
	assert.True(t, nilEntity.Empty())
}

func TestQueryResult_Pending(t *testing.T) {
	assert.True(t, (&QueryResult{ClassificationStatus: StatusInQueue}).Pending())
	assert.True(t, (&QueryResult{ClassificationStatus: StatusProcessing}).Pending())
	assert.False(t, (&QueryResult{ClassificationStatus: StatusDone}).Pending())
}
