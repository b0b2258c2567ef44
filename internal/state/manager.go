// Package state persists the history of record stream sessions served by the scanner.
// Graph state is never persisted; only one row per finished stream is kept.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Scan statuses
const (
	StatusComplete = "complete" // walk finished, stream closed with 1000
	StatusRejected = "rejected" // bad start or invalid root, closed with 1003
	StatusFailed   = "failed"   // scan error, closed with 1011
	StatusAborted  = "aborted"  // client went away before the walk finished
)

// DBName is the database file created in the data directory
const DBName = "filegraph.db"

// Manager handles scan history persistence
type Manager struct {
	db *sql.DB
}

// ScanRecord represents one served record stream
type ScanRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Root      string    `json:"root"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Files     int       `json:"files"`
	Bytes     int64     `json:"bytes"`
	Skipped   int       `json:"skipped"`
	CloseCode int       `json:"close_code"`
	Error     string    `json:"error,omitempty"`
}

// Duration returns how long the stream ran
func (r ScanRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewManager creates a new state manager
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBName)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		root TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		files INTEGER DEFAULT 0,
		bytes INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		close_code INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scans_root_time ON scans(root, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

func validStatus(s string) bool {
	switch s {
	case StatusComplete, StatusRejected, StatusFailed, StatusAborted:
		return true
	}
	return false
}

// SaveScan records a finished stream and returns its row id
func (m *Manager) SaveScan(record ScanRecord) (int64, error) {
	if !validStatus(record.Status) {
		return 0, fmt.Errorf("invalid status: %s", record.Status)
	}
	if record.SessionID == "" {
		return 0, fmt.Errorf("session id cannot be empty")
	}

	query := `
		INSERT INTO scans (session_id, root, start_time, end_time, status, files, bytes, skipped, close_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := m.db.Exec(query,
		record.SessionID,
		record.Root,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.Files,
		record.Bytes,
		record.Skipped,
		record.CloseCode,
		record.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan record: %w", err)
	}

	return res.LastInsertId()
}

const selectColumns = `id, session_id, root, start_time, end_time, status, files, bytes, skipped, close_code, error`

// GetHistory retrieves the latest scans of one root
func (m *Manager) GetHistory(root string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(`SELECT `+selectColumns+` FROM scans WHERE root = ? ORDER BY start_time DESC, id DESC LIMIT ?`, root, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return collect(rows)
}

// GetAllHistory retrieves the latest scans across roots
func (m *Manager) GetAllHistory(limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(`SELECT `+selectColumns+` FROM scans ORDER BY start_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	return collect(rows)
}

// GetLastComplete retrieves the last complete scan of a root, or nil if there is none
func (m *Manager) GetLastComplete(root string) (*ScanRecord, error) {
	row := m.db.QueryRow(`SELECT `+selectColumns+` FROM scans WHERE root = ? AND status = ? ORDER BY start_time DESC, id DESC LIMIT 1`,
		root, StatusComplete)

	record, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last complete scan: %w", err)
	}
	return &record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (ScanRecord, error) {
	var r ScanRecord
	var errText sql.NullString
	err := row.Scan(
		&r.ID,
		&r.SessionID,
		&r.Root,
		&r.StartTime,
		&r.EndTime,
		&r.Status,
		&r.Files,
		&r.Bytes,
		&r.Skipped,
		&r.CloseCode,
		&errText,
	)
	r.Error = errText.String
	return r, err
}

func collect(rows *sql.Rows) ([]ScanRecord, error) {
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
