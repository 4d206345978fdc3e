package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/russellromney/cipherkit/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Bridge workers write concurrently
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the database schema
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		operation TEXT NOT NULL,
		request_id TEXT,
		success BOOLEAN DEFAULT 1,
		error_kind TEXT,
		error_code TEXT,
		duration_ms INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_operation ON audit_log(operation);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Audit operations

func (s *SQLiteStore) LogAudit(log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO audit_log (id, timestamp, operation, request_id, success, error_kind, error_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.Timestamp, log.Operation, nullString(log.RequestID), log.Success,
		nullString(log.ErrorKind), nullString(log.ErrorCode), log.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to log audit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAuditLogs(limit int) ([]models.AuditLog, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, operation, request_id, success, error_kind, error_code, duration_ms
		FROM audit_log ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return scanAuditLogs(rows)
}

func (s *SQLiteStore) GetAuditLogsByOperation(operation string, limit int) ([]models.AuditLog, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, operation, request_id, success, error_kind, error_code, duration_ms
		FROM audit_log WHERE operation = ? ORDER BY timestamp DESC LIMIT ?
	`, operation, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return scanAuditLogs(rows)
}

// PruneAuditLogs deletes entries older than before and returns how many were removed
func (s *SQLiteStore) PruneAuditLogs(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM audit_log WHERE timestamp < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", err)
	}
	return res.RowsAffected()
}

func scanAuditLogs(rows *sql.Rows) ([]models.AuditLog, error) {
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		var requestID, errKind, errCode sql.NullString
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Operation, &requestID, &l.Success, &errKind, &errCode, &l.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		l.RequestID = requestID.String
		l.ErrorKind = errKind.String
		l.ErrorCode = errCode.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Helper function for nullable strings
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
