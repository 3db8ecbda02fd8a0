package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	database, err := Init("sqlite", filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(database) })

	require.NoError(t, RunMigrations(database.DB, "sqlite"))

	// Every intake table exists and starts empty.
	var n int
	for _, table := range []string{"cases", "evidence_files", "consent_events", "audit_log"} {
		require.NoError(t, database.Get(&n, `SELECT count(*) FROM `+table), table)
		assert.Zero(t, n, table)
	}

	require.NoError(t, MigrateDown(database.DB, "sqlite"))
	assert.Error(t, database.Get(&n, `SELECT count(*) FROM cases`))
}
