package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles settings database operations.
// Database: config.db (settings table). Values are stored as strings and
// converted on retrieval.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set stores a setting value
func (r *Repository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	r.log.Debug().Str("key", key).Msg("Setting stored")
	return nil
}

// SetFloat stores a numeric setting value
func (r *Repository) SetFloat(key string, value float64) error {
	return r.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}

// GetFloat retrieves a numeric setting, returning the fallback when the key
// is absent. Unparseable stored values are logged and treated as absent
// rather than failing the run.
func (r *Repository) GetFloat(key string, fallback float64) (float64, error) {
	value, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	if value != nil {
		parsed, parseErr := strconv.ParseFloat(*value, 64)
		if parseErr == nil {
			return parsed, nil
		}
		r.log.Warn().
			Str("key", key).
			Str("value", *value).
			Msg("Setting value is not numeric; using fallback")
	}
	return fallback, nil
}

// Touch records the time of the last analysis run, for report correlation
func (r *Repository) Touch(key string) error {
	return r.Set(key, strconv.FormatInt(time.Now().Unix(), 10))
}
