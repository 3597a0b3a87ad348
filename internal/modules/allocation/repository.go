package allocation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

// Target set names used by the host application. The engine itself is
// agnostic to provenance; these are the two sets it is asked to analyze.
const (
	SetHistorical = "historical"
	SetTemplate   = "template"
)

// TargetRepository handles allocation-target database operations.
// Database: config.db (allocation_targets table).
type TargetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTargetRepository creates a new allocation-target repository
func NewTargetRepository(db *sql.DB, log zerolog.Logger) *TargetRepository {
	return &TargetRepository{
		db:  db,
		log: log.With().Str("repo", "allocation").Logger(),
	}
}

// GetSet returns one target set at one level as a class -> fraction map.
// The returned weights are NOT normalized; the Analyzer normalizes on use.
func (r *TargetRepository) GetSet(setName string, level portfolio.Level) (TargetAllocation, error) {
	query := "SELECT class, target_pct FROM allocation_targets WHERE set_name = ? AND level = ?"

	rows, err := r.db.Query(query, setName, string(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation targets: %w", err)
	}
	defer rows.Close()

	result := make(TargetAllocation)
	for rows.Next() {
		var class string
		var targetPct float64
		if err := rows.Scan(&class, &targetPct); err != nil {
			return nil, fmt.Errorf("failed to scan allocation target: %w", err)
		}
		result[class] = targetPct
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation targets: %w", err)
	}

	return result, nil
}

// GetBySet returns all rows of one target set across both levels
func (r *TargetRepository) GetBySet(setName string) ([]Target, error) {
	query := `
		SELECT set_name, level, class, target_pct, created_at, updated_at
		FROM allocation_targets WHERE set_name = ?
		ORDER BY level, class
	`

	rows, err := r.db.Query(query, setName)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation targets by set: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var target Target
		var createdAtUnix, updatedAtUnix sql.NullInt64

		if err := rows.Scan(
			&target.SetName,
			&target.Level,
			&target.Class,
			&target.TargetPct,
			&createdAtUnix,
			&updatedAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation target: %w", err)
		}

		if createdAtUnix.Valid {
			target.CreatedAt = time.Unix(createdAtUnix.Int64, 0).UTC()
		}
		if updatedAtUnix.Valid {
			target.UpdatedAt = time.Unix(updatedAtUnix.Int64, 0).UTC()
		}

		targets = append(targets, target)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation targets: %w", err)
	}

	return targets, nil
}

// Upsert inserts or updates a single allocation target
func (r *TargetRepository) Upsert(target Target) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO allocation_targets (set_name, level, class, target_pct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(set_name, level, class) DO UPDATE SET
			target_pct = excluded.target_pct,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, target.SetName, target.Level, target.Class, target.TargetPct, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert allocation target: %w", err)
	}

	r.log.Debug().
		Str("set", target.SetName).
		Str("level", target.Level).
		Str("class", target.Class).
		Float64("target_pct", target.TargetPct).
		Msg("Allocation target upserted")

	return nil
}

// SetTargets upserts a whole class -> fraction map for one set and level
func (r *TargetRepository) SetTargets(setName string, level portfolio.Level, targets TargetAllocation) error {
	for class, pct := range targets {
		target := Target{
			SetName:   setName,
			Level:     string(level),
			Class:     class,
			TargetPct: pct,
		}
		if err := r.Upsert(target); err != nil {
			return fmt.Errorf("failed to set target %s: %w", class, err)
		}
	}
	return nil
}

// Delete removes an allocation target
func (r *TargetRepository) Delete(setName string, level portfolio.Level, class string) error {
	query := "DELETE FROM allocation_targets WHERE set_name = ? AND level = ? AND class = ?"

	result, err := r.db.Exec(query, setName, string(level), class)
	if err != nil {
		return fmt.Errorf("failed to delete allocation target: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Debug().
		Str("set", setName).
		Str("level", string(level)).
		Str("class", class).
		Int64("rows_affected", rowsAffected).
		Msg("Allocation target deleted")

	return nil
}
