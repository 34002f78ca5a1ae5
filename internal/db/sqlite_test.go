package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusmate/internal/db"
)

func TestEmbeddedMigrationsApplyOnce(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "nested", "focusmate.db"))
	require.NoError(t, err)
	defer database.Close()

	applied, err := db.RunMigrations(ctx, database, db.MigrationSource(""), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_teams.sql"}, applied)

	applied, err = db.RunMigrations(ctx, database, db.MigrationSource(""), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, applied)

	for _, table := range []string{"users", "tasks", "teams", "team_members", "focus_sessions"} {
		var name string
		err := database.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	src := fstest.MapFS{
		"001_ok.sql":     {Data: []byte(`CREATE TABLE notes (id TEXT PRIMARY KEY);`)},
		"002_broken.sql": {Data: []byte(`CREATE TABLE half (id TEXT); INSERT INTO missing VALUES (1);`)},
		"003_empty.sql":  {Data: []byte("  \n")},
		"README.md":      {Data: []byte("not a migration")},
	}

	applied, err := db.RunMigrations(ctx, database, src, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken.sql")
	assert.Equal(t, []string{"001_ok.sql"}, applied)

	var count int
	require.NoError(t, database.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE name = 'half'`).Scan(&count))
	assert.Zero(t, count)
}
