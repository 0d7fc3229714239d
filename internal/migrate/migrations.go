package migrate

// Migration is one versioned schema change. Versions are positive integers
// applied in strictly increasing order, each exactly once.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// TrackerMigrations contains the schema of a per-game tracker store, in order.
var TrackerMigrations = []Migration{
	{
		Version: 1,
		Name:    "task_tables",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
	{
		Version: 2,
		Name:    "currency_history",
		Up:      migrationV2Up,
		Down:    migrationV2Down,
	},
	{
		Version: 3,
		Name:    "task_record_keys",
		Up:      migrationV3Up,
		Down:    migrationV3Down,
	},
	{
		Version: 4,
		Name:    "store_meta",
		Up:      migrationV4Up,
		Down:    migrationV4Down,
	},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// One table per task kind; date is YYYYMMDD in the region's reset calendar.
const migrationV1Up = `
CREATE TABLE IF NOT EXISTS daily (
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS weekly (
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS periodic (
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS event (
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS other (
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const migrationV1Down = `
DROP TABLE IF EXISTS other;
DROP TABLE IF EXISTS event;
DROP TABLE IF EXISTS periodic;
DROP TABLE IF EXISTS weekly;
DROP TABLE IF EXISTS daily;
`

const migrationV2Up = `
CREATE TABLE IF NOT EXISTS currency_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date INTEGER NOT NULL,
    region TEXT NOT NULL,
    currencies TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_currency_history_region_date ON currency_history(region, date);
`

const migrationV2Down = `
DROP INDEX IF EXISTS idx_currency_history_region_date;
DROP TABLE IF EXISTS currency_history;
`

const migrationV3Up = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_key ON daily(date, region, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_weekly_key ON weekly(date, region, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_periodic_key ON periodic(date, region, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_event_key ON event(date, region, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_other_key ON other(date, region, name);
`

const migrationV3Down = `
DROP INDEX IF EXISTS idx_other_key;
DROP INDEX IF EXISTS idx_event_key;
DROP INDEX IF EXISTS idx_periodic_key;
DROP INDEX IF EXISTS idx_weekly_key;
DROP INDEX IF EXISTS idx_daily_key;
`

const migrationV4Up = `
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const migrationV4Down = `
DROP TABLE IF EXISTS store_meta;
`
