package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/russellromney/cipherkit/internal/crypto"
	"github.com/russellromney/cipherkit/internal/models"
)

// Request is one call across the boundary
type Request struct {
	ID   string          `json:"id,omitempty"`
	Fn   string          `json:"fn"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response answers exactly one Request
type Response struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Error is the boundary form of a core error. Kind is "fatal" or "recoverable".
type Error struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Error codes that do not come from the crypto package
const (
	CodeBadRequest = "bad_request"
	CodeCancelled  = "cancelled"
	CodeInternal   = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{crypto.ErrInvalidKeyLength, "invalid_key_length"},
	{crypto.ErrInvalidNonceLength, "invalid_nonce_length"},
	{crypto.ErrInvalidBase64, "invalid_base64"},
	{crypto.ErrEncryptionFailed, "encryption_failed"},
	{crypto.ErrDecryptionFailed, "decryption_failed"},
	{crypto.ErrInvalidUTF8, "invalid_utf8"},
	{crypto.ErrDerivationFailed, "derivation_failed"},
	{crypto.ErrInvalidRecoveryFormat, "invalid_recovery_format"},
	{crypto.ErrInvalidParams, "invalid_params"},
	{crypto.ErrRandomSource, "random_source"},
	{crypto.ErrInvalidHash, "invalid_hash"},
}

// toError classifies err for the boundary. Unknown errors are treated as fatal
// so they are never mistaken for routine bad input.
func toError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}

	kind := models.ErrorKindRecoverable
	if crypto.IsFatal(err) {
		kind = models.ErrorKindFatal
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return &Error{Kind: kind, Code: ec.code, Message: err.Error()}
		}
	}
	return &Error{Kind: models.ErrorKindFatal, Code: CodeInternal, Message: "internal error"}
}

func badRequest(msg string) *Error {
	return &Error{Kind: models.ErrorKindRecoverable, Code: CodeBadRequest, Message: msg}
}

type passwordArgs struct {
	Password string `json:"password"`
}

type verifyArgs struct {
	Hash     string `json:"hash"`
	Password string `json:"password"`
}

type encryptArgs struct {
	Plaintext string `json:"plaintext"`
	Key       string `json:"key"`
}

type decryptArgs struct {
	Nonce  string `json:"nonce"`
	Cipher string `json:"cipher"`
	Key    string `json:"key"`
}

type deriveArgs struct {
	Password string  `json:"password"`
	Salt     *string `json:"salt,omitempty"`
}

type recoveryArgs struct {
	Blocks    int `json:"blocks"`
	BlockSize int `json:"block_size"`
}

// HashResult is returned by hash_password
type HashResult struct {
	Hash string `json:"hash"`
}

// VerifyResult is returned by verify_password. NeedsRehash is only set for a
// matching password whose hash was made with different costs.
type VerifyResult struct {
	Valid       bool `json:"valid"`
	NeedsRehash bool `json:"needs_rehash"`
}

// KeyResult is returned by generate_key
type KeyResult struct {
	Key string `json:"key"`
}

// PlaintextResult is returned by decrypt
type PlaintextResult struct {
	Plaintext string `json:"plaintext"`
}

// RecoveryKeyResult is returned by generate_recovery_key
type RecoveryKeyResult struct {
	RecoveryKey string `json:"recovery_key"`
}

// NewRequest builds a Request with args encoded as JSON
func NewRequest(fn string, args any) (Request, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode %s arguments: %w", fn, err)
	}
	return Request{Fn: fn, Args: raw}, nil
}
