// Package trace provides an opt-in, durable record of lift runs.
//
// Every demonstration or ad-hoc lift can be recorded: which bytes were
// decoded, which selector they resolved to, whether a hotpatch was active,
// and the IR text before and after optimization. SQLite keeps the harness
// inspectable after the fact without adding any required state to the
// default run path.
package trace

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	StatusLifted      = "lifted"
	StatusDecodeError = "decode_error"
	StatusLiftError   = "lift_error"
)

// Run is one recorded lift.
type Run struct {
	ID            string    // uuid, assigned on write if empty
	CreatedAt     time.Time // assigned on write if zero
	Name          string    // demonstration name or "adhoc"
	Addr          uint64
	Bytes         string // hex-encoded instruction bytes
	Selector      string // ISEL_* name, empty if decoding failed
	Patched       bool   // whether a hotpatch was active
	Status        string
	UnoptimizedIR string
	OptimizedIR   string
}

// Store is a SQLite-backed lift log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies pragmas and schema.
// Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trace database: %w", err)
	}

	// Single writer; SQLite returns SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trace schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
