package crypto

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// HashPassword hashes a password with Argon2id using HashParams and a fresh
// random salt. The result is the standard encoded form
//
//	$argon2id$v=19$m=262144,t=6,p=2$<salt>$<digest>
//
// which carries everything needed to verify it later.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, HashParams)
}

// HashPasswordWithParams hashes a password with custom Argon2id parameters
func HashPasswordWithParams(password string, params Params) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	encoded, err := argon2id.CreateHash(password, &argon2id.Params{
		Memory:      params.Memory,
		Iterations:  params.Time,
		Parallelism: params.Threads,
		SaltLength:  params.SaltLength,
		KeyLength:   params.KeyLength,
	})
	if err != nil {
		// salt generation is the only failure path of CreateHash
		return "", fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return encoded, nil
}

// VerifyPassword checks password against an encoded hash. The parameters and
// salt stored in the hash are used, so hashes made with other costs still
// verify. A mismatch is (false, nil); an unparsable hash is ErrInvalidHash.
func VerifyPassword(encoded, password string) (bool, error) {
	if _, err := decodeHash(encoded); err != nil {
		return false, err
	}
	match, err := argon2id.ComparePasswordAndHash(password, encoded)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return match, nil
}

// NeedsRehash reports whether encoded was produced with parameters other than
// HashParams.
func NeedsRehash(encoded string) (bool, error) {
	return NeedsRehashWithParams(encoded, HashParams)
}

// NeedsRehashWithParams reports whether encoded was produced with costs other
// than params.
func NeedsRehashWithParams(encoded string, params Params) (bool, error) {
	p, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	return p.Memory != params.Memory ||
		p.Time != params.Time ||
		p.Threads != params.Threads ||
		p.KeyLength != params.KeyLength, nil
}

// Upper limits on parameters read from an encoded hash. Argon2 allocates the
// memory cost up front, and an allocation that large aborts the process.
const (
	MaxHashMemory    = 4 * 256 * 1024
	MaxHashTime      = 64
	MaxHashKeyLength = 1024
	MaxHashSaltBytes = 1024
)

// decodeHash parses and bounds-checks an encoded hash. Argon2 panics on zero
// passes or lanes, and an empty digest would match any password, so stored
// parameters get the same validation as our own plus upper limits.
func decodeHash(encoded string) (Params, error) {
	p, salt, key, err := argon2id.DecodeHash(encoded)
	if err != nil {
		switch {
		case errors.Is(err, argon2id.ErrIncompatibleVariant):
			return Params{}, fmt.Errorf("%w: algorithm is not argon2id", ErrInvalidHash)
		case errors.Is(err, argon2id.ErrIncompatibleVersion):
			return Params{}, fmt.Errorf("%w: unsupported argon2 version", ErrInvalidHash)
		default:
			return Params{}, fmt.Errorf("%w: malformed encoding", ErrInvalidHash)
		}
	}

	params := Params{
		Memory:     p.Memory,
		Time:       p.Iterations,
		Threads:    p.Parallelism,
		KeyLength:  uint32(len(key)),
		SaltLength: uint32(len(salt)),
	}
	if err := params.Validate(); err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	switch {
	case params.Memory > MaxHashMemory:
		return Params{}, fmt.Errorf("%w: memory cost above %d KiB", ErrInvalidHash, MaxHashMemory)
	case params.Time > MaxHashTime:
		return Params{}, fmt.Errorf("%w: time cost above %d", ErrInvalidHash, MaxHashTime)
	case params.KeyLength > MaxHashKeyLength:
		return Params{}, fmt.Errorf("%w: digest longer than %d bytes", ErrInvalidHash, MaxHashKeyLength)
	case params.SaltLength > MaxHashSaltBytes:
		return Params{}, fmt.Errorf("%w: salt longer than %d bytes", ErrInvalidHash, MaxHashSaltBytes)
	}
	return params, nil
}
