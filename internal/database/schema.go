package database

// schemas maps database names to their embedded DDL.
// portfolio.db holds current holdings values; config.db holds allocation
// targets and settings. Computed analysis results are never persisted.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"config":    configSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS holdings (
    level      TEXT    NOT NULL CHECK (level IN ('top', 'sub')),
    class      TEXT    NOT NULL,
    value      REAL    NOT NULL CHECK (value >= 0),
    updated_at INTEGER,
    PRIMARY KEY (level, class)
);
`

const configSchema = `
CREATE TABLE IF NOT EXISTS allocation_targets (
    set_name   TEXT    NOT NULL,
    level      TEXT    NOT NULL CHECK (level IN ('top', 'sub')),
    class      TEXT    NOT NULL,
    target_pct REAL    NOT NULL,
    created_at INTEGER,
    updated_at INTEGER,
    PRIMARY KEY (set_name, level, class)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`
