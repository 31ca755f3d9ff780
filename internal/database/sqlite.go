package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const FileName = "customers.db"

// TimeLayout is fixed width so that lexical order of stored timestamps
// matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

type DB struct {
	*sql.DB
	Path string
}

func New(dataDir string) (*DB, error) {
	return Open(filepath.Join(dataDir, FileName))
}

// Open opens (creating if needed) the datastore at path and applies migrations.
// Referential integrity between tables is advisory, so foreign keys stay off.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &DB{DB: db, Path: dbPath}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT '中文'
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			whatsapp TEXT NOT NULL DEFAULT '',
			line TEXT NOT NULL DEFAULT '',
			telegram TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			age INTEGER NOT NULL DEFAULT 0,
			job TEXT NOT NULL DEFAULT '',
			income TEXT NOT NULL DEFAULT '',
			marital_status TEXT NOT NULL DEFAULT '',
			deal_amount REAL NOT NULL DEFAULT 0,
			level TEXT NOT NULL DEFAULT '',
			progress TEXT NOT NULL DEFAULT '',
			main_owner TEXT NOT NULL DEFAULT '',
			assistant TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS followups (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			author TEXT NOT NULL,
			note TEXT NOT NULL,
			next_action TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS action_logs (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			action TEXT NOT NULL,
			target_table TEXT NOT NULL DEFAULT '',
			target_id TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_main_owner ON customers(main_owner)`,
		`CREATE INDEX IF NOT EXISTS idx_followups_customer ON followups(customer_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_followups_created_at ON followups(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_action_logs_created_at ON action_logs(created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		// rows written by older tooling may carry plain RFC 3339
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}
