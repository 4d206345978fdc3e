package crypto

import "errors"

// Recoverable errors are caused by caller-supplied data and are expected under
// buggy or adversarial input.
var (
	// ErrInvalidKeyLength is returned when the key is not the correct length
	ErrInvalidKeyLength = errors.New("invalid key length: must be 32 bytes")
	// ErrInvalidNonceLength is returned when the nonce is not the correct length
	ErrInvalidNonceLength = errors.New("invalid nonce length: must be 12 bytes")
	// ErrInvalidBase64 is returned when a base64 input cannot be decoded
	ErrInvalidBase64 = errors.New("invalid base64")
	// ErrEncryptionFailed is returned when the AEAD cannot be constructed or sealed
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrDecryptionFailed is returned when decryption fails (wrong key or corrupted data)
	ErrDecryptionFailed = errors.New("decryption failed: wrong key or corrupted data")
	// ErrInvalidUTF8 is returned when decrypted bytes are not valid UTF-8 text
	ErrInvalidUTF8 = errors.New("decrypted data is not valid UTF-8")
	// ErrDerivationFailed is returned when key derivation rejects its inputs
	ErrDerivationFailed = errors.New("key derivation failed")
	// ErrInvalidRecoveryFormat is returned for out of range recovery key dimensions
	ErrInvalidRecoveryFormat = errors.New("invalid recovery key format")
)

// Fatal errors mean the environment is broken rather than the input.
var (
	// ErrInvalidParams is returned when Argon2id parameters are unusable
	ErrInvalidParams = errors.New("invalid argon2id parameters")
	// ErrRandomSource is returned when the system random source fails
	ErrRandomSource = errors.New("random source unavailable")
	// ErrInvalidHash is returned when an encoded password hash cannot be parsed
	ErrInvalidHash = errors.New("invalid encoded password hash")
)

// IsFatal reports whether err belongs to the fatal tier. Callers should abort the
// current operation loudly instead of treating these as bad input.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrRandomSource) ||
		errors.Is(err, ErrInvalidHash)
}
