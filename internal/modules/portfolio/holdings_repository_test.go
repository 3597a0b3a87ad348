package portfolio

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the holdings table
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE holdings (
			level      TEXT    NOT NULL CHECK (level IN ('top', 'sub')),
			class      TEXT    NOT NULL,
			value      REAL    NOT NULL CHECK (value >= 0),
			updated_at INTEGER,
			PRIMARY KEY (level, class)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestHoldingsRepository_UpsertAndGet(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(LevelTop, "Equity", 600))
	require.NoError(t, repo.Upsert(LevelTop, "Bonds", 300))
	require.NoError(t, repo.Upsert(LevelSub, "equity_us", 400))

	top, err := repo.GetByLevel(LevelTop)
	require.NoError(t, err)
	assert.Equal(t, Holdings{"Equity": 600, "Bonds": 300}, top)

	// Upsert overwrites the existing value
	require.NoError(t, repo.Upsert(LevelTop, "Equity", 650))
	top, err = repo.GetByLevel(LevelTop)
	require.NoError(t, err)
	assert.Equal(t, 650.0, top["Equity"])
}

func TestHoldingsRepository_UpsertRejectsNegative(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())
	assert.Error(t, repo.Upsert(LevelTop, "Equity", -1))
}

func TestHoldingsRepository_GetAll(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(LevelTop, "Equity", 100))
	require.NoError(t, repo.Upsert(LevelSub, "equity_us", 60))
	require.NoError(t, repo.Upsert(LevelSub, "equity_eu", 40))

	top, sub, err := repo.GetAll()
	require.NoError(t, err)
	assert.Equal(t, Holdings{"Equity": 100}, top)
	assert.Equal(t, Holdings{"equity_us": 60, "equity_eu": 40}, sub)
}

func TestHoldingsRepository_GetByLevel_Empty(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())

	top, err := repo.GetByLevel(LevelTop)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestHoldingsRepository_Replace(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(LevelSub, "equity_us", 400))
	require.NoError(t, repo.Upsert(LevelSub, "bonds_gov", 200))
	require.NoError(t, repo.Upsert(LevelTop, "Equity", 400))

	require.NoError(t, repo.Replace(LevelSub, map[string]float64{
		"equity_eu": 300,
		"cash_eur":  100,
	}))

	sub, err := repo.GetByLevel(LevelSub)
	require.NoError(t, err)
	assert.Equal(t, Holdings{"equity_eu": 300, "cash_eur": 100}, sub)

	// The other granularity is untouched
	top, err := repo.GetByLevel(LevelTop)
	require.NoError(t, err)
	assert.Equal(t, Holdings{"Equity": 400}, top)
}

func TestHoldingsRepository_ReplaceRejectsInvalid(t *testing.T) {
	repo := NewHoldingsRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(LevelSub, "equity_us", 400))

	err := repo.Replace(LevelSub, map[string]float64{"equity_eu": -5})
	require.Error(t, err)

	// Rejected replace leaves existing rows in place
	sub, err := repo.GetByLevel(LevelSub)
	require.NoError(t, err)
	assert.Equal(t, Holdings{"equity_us": 400}, sub)
}
