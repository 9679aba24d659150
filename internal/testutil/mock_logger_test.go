package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/testutil"
)

func TestRecordingLogger(t *testing.T) {
	logger := testutil.NewRecordingLogger()

	logger.Info("family scored", logging.String("family", "S1"))
	require.Len(t, logger.Entries(), 1)
	assert.Equal(t, "S1", logger.Entries()[0].Fields["family"])

	logger.Reset()
	assert.Empty(t, logger.Entries())

	logger.Error("lookup failed")
	assert.True(t, logger.HasMessage("error", "lookup failed"))
	assert.False(t, logger.HasMessage("info", "lookup failed"))
}

func TestRecordingLogger_ChildrenShareEntries(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	child := logger.Named("classes").Named("neo4j").With(logging.String("run_id", "r1"))

	child.Warn("export failed", logging.Int("nodes", 3))

	warns := logger.Entries("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "classes.neo4j", warns[0].Logger)
	assert.Equal(t, "r1", warns[0].Fields["run_id"])
	assert.Equal(t, 3, warns[0].Fields["nodes"])
}
