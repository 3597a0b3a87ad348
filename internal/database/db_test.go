package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryAndConnects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")

	db, err := New(Config{Path: path, Name: "portfolio"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "portfolio", db.Name())
	assert.Equal(t, path, db.Path())
	assert.NoError(t, db.Conn().Ping())
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString("/tmp/test.db")

	assert.True(t, strings.HasPrefix(connStr, "/tmp/test.db?"))
	assert.Contains(t, connStr, "_pragma=journal_mode(WAL)")
	assert.Contains(t, connStr, "_pragma=foreign_keys(1)")
}

func TestMigrate_Portfolio(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec(
		"INSERT INTO holdings (level, class, value) VALUES ('top', 'Equity', 600)")
	require.NoError(t, err)

	// Schema constraints are enforced
	_, err = db.Conn().Exec(
		"INSERT INTO holdings (level, class, value) VALUES ('bogus', 'Equity', 600)")
	assert.Error(t, err)
	_, err = db.Conn().Exec(
		"INSERT INTO holdings (level, class, value) VALUES ('top', 'Bonds', -1)")
	assert.Error(t, err)
}

func TestMigrate_Config(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "config.db"),
		Name: "config",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec(
		"INSERT INTO allocation_targets (set_name, level, class, target_pct) VALUES ('historical', 'top', 'Equity', 0.5)")
	require.NoError(t, err)
	_, err = db.Conn().Exec(
		"INSERT INTO settings (key, value) VALUES ('rebalancing_threshold', '0.05')")
	require.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestMigrate_UnknownDatabaseIsNoop(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "other.db"),
		Name: "other",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Migrate())
}
