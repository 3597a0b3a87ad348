package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HoldingsRepository handles holdings database operations.
// Database: portfolio.db (holdings table).
type HoldingsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingsRepository creates a new holdings repository
func NewHoldingsRepository(db *sql.DB, log zerolog.Logger) *HoldingsRepository {
	return &HoldingsRepository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// GetByLevel returns all holdings at one granularity as a class -> value map
func (r *HoldingsRepository) GetByLevel(level Level) (Holdings, error) {
	query := "SELECT class, value FROM holdings WHERE level = ?"

	rows, err := r.db.Query(query, string(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var class string
		var value float64
		if err := rows.Scan(&class, &value); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		values[class] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return NewHoldings(values)
}

// GetAll returns holdings at both granularities
func (r *HoldingsRepository) GetAll() (top Holdings, sub Holdings, err error) {
	top, err = r.GetByLevel(LevelTop)
	if err != nil {
		return nil, nil, err
	}
	sub, err = r.GetByLevel(LevelSub)
	if err != nil {
		return nil, nil, err
	}
	return top, sub, nil
}

// Upsert inserts or updates a single holding value
func (r *HoldingsRepository) Upsert(level Level, class string, value float64) error {
	if value < 0 {
		return fmt.Errorf("holding %q has negative value %f", class, value)
	}

	query := `
		INSERT INTO holdings (level, class, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(level, class) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, string(level), class, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}

	r.log.Debug().
		Str("level", string(level)).
		Str("class", class).
		Float64("value", value).
		Msg("Holding upserted")

	return nil
}

// Replace atomically swaps all holdings at one granularity for a fresh import
func (r *HoldingsRepository) Replace(level Level, values map[string]float64) error {
	holdings, err := NewHoldings(values)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM holdings WHERE level = ?", string(level)); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}

	now := time.Now().Unix()
	for class, value := range holdings {
		_, err := tx.Exec(
			"INSERT INTO holdings (level, class, value, updated_at) VALUES (?, ?, ?, ?)",
			string(level), class, value, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert holding %q: %w", class, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit holdings replace: %w", err)
	}

	r.log.Debug().
		Str("level", string(level)).
		Int("count", len(holdings)).
		Msg("Holdings replaced")

	return nil
}
