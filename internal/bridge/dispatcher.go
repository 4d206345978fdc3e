package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/russellromney/cipherkit/internal/crypto"
	"github.com/russellromney/cipherkit/internal/models"
)

// AuditSink receives one entry per call. store.Store satisfies it.
type AuditSink interface {
	LogAudit(log *models.AuditLog) error
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithAudit records every call in sink
func WithAudit(sink AuditSink) Option {
	return func(d *Dispatcher) { d.audit = sink }
}

// WithParams overrides the Argon2id costs for hashing and key derivation
func WithParams(hash, kdf crypto.Params) Option {
	return func(d *Dispatcher) {
		d.hashParams = hash
		d.kdfParams = kdf
	}
}

type handler func(d *Dispatcher, args json.RawMessage) (any, error)

var handlers = map[string]handler{
	models.OpHashPassword:        (*Dispatcher).hashPassword,
	models.OpVerifyPassword:      (*Dispatcher).verifyPassword,
	models.OpGenerateKey:         (*Dispatcher).generateKey,
	models.OpEncrypt:             (*Dispatcher).encrypt,
	models.OpDecrypt:             (*Dispatcher).decrypt,
	models.OpDeriveKey:           (*Dispatcher).deriveKey,
	models.OpGenerateRecoveryKey: (*Dispatcher).generateRecoveryKey,
}

// Dispatcher executes boundary calls against the crypto core. It holds no
// per-call state and is safe for concurrent use.
type Dispatcher struct {
	logger     *zap.Logger
	audit      AuditSink
	hashParams crypto.Params
	kdfParams  crypto.Params
}

// NewDispatcher creates a Dispatcher using the production Argon2id costs
func NewDispatcher(logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		logger:     logger,
		hashParams: crypto.HashParams,
		kdfParams:  crypto.KDFParams,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Call runs one request and always returns a response; failures are reported
// in Response.Error, never as a panic.
func (d *Dispatcher) Call(ctx context.Context, req Request) Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	start := time.Now()

	var (
		result any
		err    error
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = &Error{Kind: models.ErrorKindRecoverable, Code: CodeCancelled, Message: ctxErr.Error()}
	} else if h, ok := handlers[req.Fn]; ok {
		result, err = h(d, req.Args)
	} else {
		err = badRequest(fmt.Sprintf("unknown function %q", req.Fn))
	}

	resp := Response{ID: req.ID, OK: err == nil, Result: result}
	if err != nil {
		resp.Result = nil
		resp.Error = toError(err)
	}
	d.record(req, resp, time.Since(start))
	return resp
}

func (d *Dispatcher) record(req Request, resp Response, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("id", req.ID),
		zap.String("fn", req.Fn),
		zap.Bool("ok", resp.OK),
		zap.Duration("elapsed", elapsed),
	}
	entry := &models.AuditLog{
		Operation:  req.Fn,
		RequestID:  req.ID,
		Success:    resp.OK,
		DurationMS: elapsed.Milliseconds(),
	}
	if resp.Error != nil {
		fields = append(fields, zap.String("kind", resp.Error.Kind), zap.String("code", resp.Error.Code))
		entry.ErrorKind = resp.Error.Kind
		entry.ErrorCode = resp.Error.Code
	}

	switch {
	case resp.Error != nil && resp.Error.Kind == models.ErrorKindFatal:
		d.logger.Error("bridge call failed", fields...)
	case resp.Error != nil:
		d.logger.Info("bridge call rejected", fields...)
	default:
		d.logger.Debug("bridge call", fields...)
	}

	if d.audit == nil {
		return
	}
	if err := d.audit.LogAudit(entry); err != nil {
		d.logger.Warn("audit write failed", zap.String("id", req.ID), zap.Error(err))
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed arguments")
	}
	return nil
}

func decodeKey(b64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", crypto.ErrInvalidBase64, err)
	}
	return key, nil
}

func (d *Dispatcher) hashPassword(raw json.RawMessage) (any, error) {
	var args passwordArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPasswordWithParams(args.Password, d.hashParams)
	if err != nil {
		return nil, err
	}
	return HashResult{Hash: hash}, nil
}

func (d *Dispatcher) verifyPassword(raw json.RawMessage) (any, error) {
	var args verifyArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	valid, err := crypto.VerifyPassword(args.Hash, args.Password)
	if err != nil {
		return nil, err
	}
	res := VerifyResult{Valid: valid}
	if valid {
		if res.NeedsRehash, err = crypto.NeedsRehashWithParams(args.Hash, d.hashParams); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (d *Dispatcher) generateKey(raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(key)
	return KeyResult{Key: base64.StdEncoding.EncodeToString(key)}, nil
}

func (d *Dispatcher) encrypt(raw json.RawMessage) (any, error) {
	var args encryptArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	key, err := decodeKey(args.Key)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(key)
	return crypto.EncryptText(args.Plaintext, key)
}

func (d *Dispatcher) decrypt(raw json.RawMessage) (any, error) {
	var args decryptArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	key, err := decodeKey(args.Key)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(key)
	plaintext, err := crypto.DecryptText(args.Nonce, args.Cipher, key)
	if err != nil {
		return nil, err
	}
	return PlaintextResult{Plaintext: plaintext}, nil
}

func (d *Dispatcher) deriveKey(raw json.RawMessage) (any, error) {
	var args deriveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return crypto.DeriveKeyB64WithParams(args.Password, args.Salt, d.kdfParams)
}

func (d *Dispatcher) generateRecoveryKey(raw json.RawMessage) (any, error) {
	var args recoveryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	key, err := crypto.GenerateRecoveryKey(args.Blocks, args.BlockSize)
	if err != nil {
		return nil, err
	}
	return RecoveryKeyResult{RecoveryKey: key}, nil
}
