package store

import (
	"time"

	"github.com/russellromney/cipherkit/internal/models"
)

// Store defines the interface for persistent storage
type Store interface {
	// Close closes the database connection
	Close() error

	// Audit operations
	LogAudit(log *models.AuditLog) error
	GetAuditLogs(limit int) ([]models.AuditLog, error)
	GetAuditLogsByOperation(operation string, limit int) ([]models.AuditLog, error)
	PruneAuditLogs(before time.Time) (int64, error)
}
