package models

import "time"

// AuditLog records a call made through the bridge or the CLI.
// It never holds passwords, keys, plaintext or ciphertext.
type AuditLog struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	RequestID  string    `json:"request_id,omitempty"`
	Success    bool      `json:"success"`
	ErrorKind  string    `json:"error_kind,omitempty"` // "fatal" or "recoverable"
	ErrorCode  string    `json:"error_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Operation names, shared by the bridge protocol and the audit trail
const (
	OpHashPassword        = "hash_password"
	OpVerifyPassword      = "verify_password"
	OpGenerateKey         = "generate_key"
	OpEncrypt             = "encrypt"
	OpDecrypt             = "decrypt"
	OpDeriveKey           = "derive_key"
	OpGenerateRecoveryKey = "generate_recovery_key"
)

// Error kinds
const (
	ErrorKindFatal       = "fatal"
	ErrorKindRecoverable = "recoverable"
)
