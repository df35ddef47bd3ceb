package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTunePool(t *testing.T) {
	c, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)

	tunePool(c, 8, 2)
	assert.Equal(t, int32(8), c.MaxConns)
	assert.Equal(t, int32(2), c.MinConns)
	assert.Equal(t, 2*time.Minute, c.MaxConnIdleTime)

	// Min above max is ignored.
	tunePool(c, 4, 6)
	assert.Equal(t, int32(4), c.MaxConns)
	assert.Equal(t, int32(2), c.MinConns)
}

func TestFindMigrationDir(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "db", "migrations")
	require.NoError(t, os.MkdirAll(want, 0o755))
	nested := filepath.Join(root, "internal", "service")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	chdir(t, nested)
	assert.Equal(t, want, FindMigrationDir())
}

func TestFindMigrationDir_NotFound(t *testing.T) {
	chdir(t, t.TempDir())
	assert.Equal(t, migrationsSubdir, FindMigrationDir())
}
