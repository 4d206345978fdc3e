package crypto

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// MinSaltLength is the shortest salt Argon2 accepts
const MinSaltLength = 8

// Params are Argon2id cost parameters
type Params struct {
	// Memory is the memory cost in KiB
	Memory uint32
	// Time is the number of passes over memory
	Time uint32
	// Threads is the degree of parallelism
	Threads uint8
	// KeyLength is the output length in bytes
	KeyLength uint32
	// SaltLength is the length of generated salts in bytes
	SaltLength uint32
}

// HashParams are used for encoded password hashes: 256 MiB, 6 passes, 2 lanes,
// 64-byte digest.
var HashParams = Params{
	Memory:     256 * 1024,
	Time:       6,
	Threads:    2,
	KeyLength:  64,
	SaltLength: SaltLength,
}

// KDFParams are used for password-based key derivation. Same cost as HashParams
// with a 32-byte output sized for AES-256.
var KDFParams = Params{
	Memory:     256 * 1024,
	Time:       6,
	Threads:    2,
	KeyLength:  KeyLength,
	SaltLength: SaltLength,
}

// Validate checks the parameters against the limits of Argon2
func (p Params) Validate() error {
	switch {
	case p.Time < 1:
		return fmt.Errorf("%w: time must be at least 1", ErrInvalidParams)
	case p.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1", ErrInvalidParams)
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("%w: memory must be at least 8 KiB per thread", ErrInvalidParams)
	case p.KeyLength < 4:
		return fmt.Errorf("%w: key length must be at least 4 bytes", ErrInvalidParams)
	case p.SaltLength < MinSaltLength:
		return fmt.Errorf("%w: salt length must be at least %d bytes", ErrInvalidParams, MinSaltLength)
	}
	return nil
}

// DerivedKey is the base64 form of a derived key together with its salt
type DerivedKey struct {
	Key  string `json:"key"`
	Salt string `json:"salt"`
}

// DeriveKey derives a 256-bit encryption key from a password using Argon2id
// with KDFParams. The same password and salt always produce the same key.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	return DeriveKeyWithParams(password, salt, KDFParams)
}

// DeriveKeyWithParams derives a key with custom Argon2id parameters
// This is useful for testing with faster parameters
func DeriveKeyWithParams(password string, salt []byte, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(salt) < MinSaltLength {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes", ErrDerivationFailed, MinSaltLength)
	}
	return argon2.IDKey(
		[]byte(password),
		salt,
		params.Time,
		params.Memory,
		params.Threads,
		params.KeyLength,
	), nil
}

// DeriveKeyB64 derives a key from password. When saltB64 is nil a fresh salt is
// generated; otherwise the given salt is reused so a later call reproduces the
// same key. The salt is always returned so the caller can persist it.
func DeriveKeyB64(password string, saltB64 *string) (*DerivedKey, error) {
	return DeriveKeyB64WithParams(password, saltB64, KDFParams)
}

// DeriveKeyB64WithParams is DeriveKeyB64 with custom Argon2id parameters
func DeriveKeyB64WithParams(password string, saltB64 *string, params Params) (*DerivedKey, error) {
	var salt []byte
	if saltB64 != nil {
		decoded, err := base64.StdEncoding.DecodeString(*saltB64)
		if err != nil {
			return nil, fmt.Errorf("%w: salt: %v", ErrInvalidBase64, err)
		}
		salt = decoded
	} else {
		generated, err := GenerateSalt(params.SaltLength)
		if err != nil {
			return nil, err
		}
		salt = generated
	}

	key, err := DeriveKeyWithParams(password, salt, params)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	return &DerivedKey{
		Key:  base64.StdEncoding.EncodeToString(key),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}
