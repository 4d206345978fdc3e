package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russellromney/cipherkit/internal/crypto"
	"github.com/russellromney/cipherkit/internal/models"
)

var (
	fastHash = crypto.Params{Memory: 64, Time: 1, Threads: 1, KeyLength: 64, SaltLength: 16}
	fastKDF  = crypto.Params{Memory: 64, Time: 1, Threads: 1, KeyLength: 32, SaltLength: 16}
)

type memorySink struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (m *memorySink) LogAudit(log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *log)
	return m.err
}

func newTestDispatcher(opts ...Option) *Dispatcher {
	return NewDispatcher(nil, append([]Option{WithParams(fastHash, fastKDF)}, opts...)...)
}

func call(t *testing.T, d *Dispatcher, fn string, args any) Response {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return d.Call(context.Background(), Request{ID: "t", Fn: fn, Args: raw})
}

func generatedKey(t *testing.T, d *Dispatcher) string {
	t.Helper()
	resp := call(t, d, models.OpGenerateKey, map[string]any{})
	require.True(t, resp.OK, "generate_key: %+v", resp.Error)
	return resp.Result.(KeyResult).Key
}

func TestHashAndVerify(t *testing.T) {
	d := newTestDispatcher()

	resp := call(t, d, models.OpHashPassword, passwordArgs{Password: "correct horse battery staple"})
	require.True(t, resp.OK)
	hash := resp.Result.(HashResult).Hash
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	resp = call(t, d, models.OpVerifyPassword, verifyArgs{Hash: hash, Password: "correct horse battery staple"})
	require.True(t, resp.OK)
	assert.True(t, resp.Result.(VerifyResult).Valid)
	assert.False(t, resp.Result.(VerifyResult).NeedsRehash)

	resp = call(t, d, models.OpVerifyPassword, verifyArgs{Hash: hash, Password: "Correct horse battery staple"})
	require.True(t, resp.OK)
	assert.False(t, resp.Result.(VerifyResult).Valid)
}

func TestVerifyReportsRehash(t *testing.T) {
	old := fastHash
	old.Time = 2
	hash, err := crypto.HashPasswordWithParams("pw", old)
	require.NoError(t, err)

	d := newTestDispatcher()
	resp := call(t, d, models.OpVerifyPassword, verifyArgs{Hash: hash, Password: "pw"})
	require.True(t, resp.OK)
	assert.Equal(t, VerifyResult{Valid: true, NeedsRehash: true}, resp.Result)

	// a mismatch never reports rehash
	resp = call(t, d, models.OpVerifyPassword, verifyArgs{Hash: hash, Password: "PW"})
	require.True(t, resp.OK)
	assert.Equal(t, VerifyResult{}, resp.Result)

	raw, err := json.Marshal(VerifyResult{Valid: true, NeedsRehash: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true,"needs_rehash":true}`, string(raw))
}

func TestVerifyOversizedCostIsFatal(t *testing.T) {
	salt := base64.RawStdEncoding.EncodeToString(make([]byte, 16))
	digest := base64.RawStdEncoding.EncodeToString(make([]byte, 32))
	hash := "$argon2id$v=19$m=4294967295,t=1,p=1$" + salt + "$" + digest

	resp := call(t, newTestDispatcher(), models.OpVerifyPassword, verifyArgs{Hash: hash, Password: "pw"})
	require.False(t, resp.OK)
	assert.Equal(t, models.ErrorKindFatal, resp.Error.Kind)
	assert.Equal(t, "invalid_hash", resp.Error.Code)
}

func TestVerifyMalformedHashIsFatal(t *testing.T) {
	d := newTestDispatcher()

	resp := call(t, d, models.OpVerifyPassword, verifyArgs{Hash: "plaintext?", Password: "pw"})
	require.False(t, resp.OK)
	assert.Nil(t, resp.Result)
	assert.Equal(t, models.ErrorKindFatal, resp.Error.Kind)
	assert.Equal(t, "invalid_hash", resp.Error.Code)
}

func TestGenerateKey(t *testing.T) {
	d := newTestDispatcher()

	k1 := generatedKey(t, d)
	k2 := generatedKey(t, d)
	assert.NotEqual(t, k1, k2)

	raw, err := base64.StdEncoding.DecodeString(k1)
	require.NoError(t, err)
	assert.Len(t, raw, crypto.KeyLength)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	d := newTestDispatcher()
	key := generatedKey(t, d)

	resp := call(t, d, models.OpEncrypt, encryptArgs{Plaintext: `{"user_id":"42"}`, Key: key})
	require.True(t, resp.OK, "%+v", resp.Error)
	sealed := resp.Result.(*crypto.Sealed)
	assert.NotEmpty(t, sealed.Nonce)
	assert.NotEmpty(t, sealed.Cipher)

	resp = call(t, d, models.OpDecrypt, decryptArgs{Nonce: sealed.Nonce, Cipher: sealed.Cipher, Key: key})
	require.True(t, resp.OK, "%+v", resp.Error)
	assert.Equal(t, `{"user_id":"42"}`, resp.Result.(PlaintextResult).Plaintext)
}

func TestEncryptDecryptErrors(t *testing.T) {
	d := newTestDispatcher()
	key := generatedKey(t, d)
	other := generatedKey(t, d)

	sealed := call(t, d, models.OpEncrypt, encryptArgs{Plaintext: "secret", Key: key}).Result.(*crypto.Sealed)
	shortKey := base64.StdEncoding.EncodeToString(make([]byte, 31))
	longNonce := base64.StdEncoding.EncodeToString(make([]byte, 13))

	cases := []struct {
		name string
		fn   string
		args any
		code string
	}{
		{"encrypt short key", models.OpEncrypt, encryptArgs{Plaintext: "x", Key: shortKey}, "invalid_key_length"},
		{"encrypt key not base64", models.OpEncrypt, encryptArgs{Plaintext: "x", Key: "!!"}, "invalid_base64"},
		{"decrypt wrong key", models.OpDecrypt, decryptArgs{Nonce: sealed.Nonce, Cipher: sealed.Cipher, Key: other}, "decryption_failed"},
		{"decrypt long nonce", models.OpDecrypt, decryptArgs{Nonce: longNonce, Cipher: sealed.Cipher, Key: key}, "invalid_nonce_length"},
		{"decrypt bad cipher", models.OpDecrypt, decryptArgs{Nonce: sealed.Nonce, Cipher: "@@", Key: key}, "invalid_base64"},
		{"decrypt short key", models.OpDecrypt, decryptArgs{Nonce: sealed.Nonce, Cipher: sealed.Cipher, Key: shortKey}, "invalid_key_length"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, d, tc.fn, tc.args)
			require.False(t, resp.OK)
			assert.Nil(t, resp.Result)
			assert.Equal(t, models.ErrorKindRecoverable, resp.Error.Kind)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, key)
		})
	}
}

func TestDeriveKeyReproducible(t *testing.T) {
	d := newTestDispatcher()

	resp := call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw"})
	require.True(t, resp.OK, "%+v", resp.Error)
	first := resp.Result.(*crypto.DerivedKey)

	resp = call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw", Salt: &first.Salt})
	require.True(t, resp.OK, "%+v", resp.Error)
	second := resp.Result.(*crypto.DerivedKey)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Salt, second.Salt)
}

func TestDeriveKeyErrors(t *testing.T) {
	d := newTestDispatcher()

	bad := "not base64"
	resp := call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw", Salt: &bad})
	require.False(t, resp.OK)
	assert.Equal(t, "invalid_base64", resp.Error.Code)
	assert.Equal(t, models.ErrorKindRecoverable, resp.Error.Kind)

	short := base64.StdEncoding.EncodeToString([]byte("abc"))
	resp = call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw", Salt: &short})
	require.False(t, resp.OK)
	assert.Equal(t, "derivation_failed", resp.Error.Code)
}

func TestDerivedKeyUnwrapsStoredKey(t *testing.T) {
	d := newTestDispatcher()

	// sign-up: derive a wrapping key, wrap a fresh data key with it
	derived := call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw"}).Result.(*crypto.DerivedKey)
	dataKey := generatedKey(t, d)
	wrapped := call(t, d, models.OpEncrypt, encryptArgs{Plaintext: dataKey, Key: derived.Key}).Result.(*crypto.Sealed)

	// login: re-derive from the stored salt and unwrap
	again := call(t, d, models.OpDeriveKey, deriveArgs{Password: "pw", Salt: &derived.Salt}).Result.(*crypto.DerivedKey)
	resp := call(t, d, models.OpDecrypt, decryptArgs{Nonce: wrapped.Nonce, Cipher: wrapped.Cipher, Key: again.Key})
	require.True(t, resp.OK, "%+v", resp.Error)
	assert.Equal(t, dataKey, resp.Result.(PlaintextResult).Plaintext)
}

func TestGenerateRecoveryKey(t *testing.T) {
	d := newTestDispatcher()

	resp := call(t, d, models.OpGenerateRecoveryKey, recoveryArgs{Blocks: 6, BlockSize: 4})
	require.True(t, resp.OK)
	key := resp.Result.(RecoveryKeyResult).RecoveryKey
	assert.Len(t, strings.Split(key, "-"), 6)

	resp = call(t, d, models.OpGenerateRecoveryKey, recoveryArgs{Blocks: 0, BlockSize: 4})
	require.False(t, resp.OK)
	assert.Equal(t, "invalid_recovery_format", resp.Error.Code)
}

func TestBadRequests(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Call(context.Background(), Request{Fn: "launch_missiles"})
	require.False(t, resp.OK)
	assert.Equal(t, CodeBadRequest, resp.Error.Code)
	assert.NotEmpty(t, resp.ID, "missing id should be generated")

	resp = d.Call(context.Background(), Request{ID: "x", Fn: models.OpEncrypt, Args: json.RawMessage(`{"plaintext": 12}`)})
	require.False(t, resp.OK)
	assert.Equal(t, CodeBadRequest, resp.Error.Code)
	assert.Equal(t, "x", resp.ID)

	resp = d.Call(context.Background(), Request{Fn: models.OpGenerateKey, Args: json.RawMessage(`{"size": 16}`)})
	require.False(t, resp.OK)
	assert.Equal(t, CodeBadRequest, resp.Error.Code)
}

func TestCallCancelled(t *testing.T) {
	d := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := d.Call(ctx, Request{Fn: models.OpGenerateKey})
	require.False(t, resp.OK)
	assert.Equal(t, CodeCancelled, resp.Error.Code)
}

func TestAuditEntries(t *testing.T) {
	sink := &memorySink{}
	d := newTestDispatcher(WithAudit(sink))
	key := generatedKey(t, d)

	call(t, d, models.OpEncrypt, encryptArgs{Plaintext: "secret", Key: key})
	call(t, d, models.OpDecrypt, decryptArgs{Nonce: "AAAA", Cipher: "AAAA", Key: key})

	require.Len(t, sink.entries, 3)
	assert.Equal(t, models.OpGenerateKey, sink.entries[0].Operation)
	assert.True(t, sink.entries[1].Success)
	assert.Equal(t, "t", sink.entries[1].RequestID)

	failed := sink.entries[2]
	assert.False(t, failed.Success)
	assert.Equal(t, "invalid_nonce_length", failed.ErrorCode)
	assert.Equal(t, models.ErrorKindRecoverable, failed.ErrorKind)

	encoded, err := json.Marshal(sink.entries)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "secret")
	assert.NotContains(t, string(encoded), key)
}

func TestAuditFailureDoesNotFailCall(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	d := newTestDispatcher(WithAudit(sink))

	resp := d.Call(context.Background(), Request{Fn: models.OpGenerateKey})
	assert.True(t, resp.OK)
	assert.Len(t, sink.entries, 1)
}

func TestToErrorUnknownIsFatal(t *testing.T) {
	e := toError(errors.New("boom"))
	assert.Equal(t, models.ErrorKindFatal, e.Kind)
	assert.Equal(t, CodeInternal, e.Code)
	assert.NotContains(t, e.Message, "boom")
}
