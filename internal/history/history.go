// Package history keeps a local log of analyze calls in SQLite so past
// classifications can be reviewed without hitting the backend.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

const defaultRecentLimit = 20

// Entry is one recorded analysis result.
type Entry struct {
	ID         string
	RemoteID   int64
	Subject    string
	Category   string
	Confidence int
	CreatedAt  time.Time
}

// Init opens the SQLite log at baseDir/sift.db, creating the file and
// schema on first use. The baseDir parameter allows tests to use
// t.TempDir() instead of ~/.sift.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "sift.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS analyses (
		  id         TEXT PRIMARY KEY,
		  remote_id  INTEGER NOT NULL,
		  subject    TEXT NOT NULL,
		  category   TEXT NOT NULL,
		  confidence INTEGER NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_created
		ON analyses(created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_analyses_category
		ON analyses(category, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// Store wraps the log database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends one analysis result and returns its local id.
func (s *Store) Record(remoteID int64, subject, category string, confidence int) (string, error) {
	id := ulid.Make().String()
	_, err := s.db.Exec(
		`INSERT INTO analyses (id, remote_id, subject, category, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, remoteID, subject, category, confidence, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record analysis: %w", err)
	}
	return id, nil
}

// Recent returns the newest entries, most recent first. A limit of 0
// uses the default; category narrows the result when non-empty.
func (s *Store) Recent(limit int, category string) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `SELECT id, remote_id, subject, category, confidence, created_at
	          FROM analyses`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdMs int64
		if err := rows.Scan(&e.ID, &e.RemoteID, &e.Subject, &e.Category, &e.Confidence, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear drops all recorded analyses.
func (s *Store) Clear() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear analyses: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
