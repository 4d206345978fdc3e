package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	// KeyLength is the length of the encryption key in bytes (256 bits)
	KeyLength = 32
	// NonceLength is the length of the GCM nonce in bytes (96 bits)
	NonceLength = 12
	// SaltLength is the length of a freshly generated salt in bytes
	SaltLength = 16
	// TagLength is the length of the GCM authentication tag in bytes
	TagLength = 16
)

// Sealed is the result of EncryptText. The nonce is not secret but is required
// for decryption, so the two always travel together.
type Sealed struct {
	Nonce  string `json:"nonce"`
	Cipher string `json:"cipher"`
}

// randomSource is swapped in tests to simulate a broken RNG.
var randomSource io.Reader = rand.Reader

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randomSource, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return b, nil
}

// GenerateKey generates a random 256-bit encryption key
func GenerateKey() ([]byte, error) {
	return randomBytes(KeyLength)
}

// GenerateSalt generates a random salt of the given length for key
// derivation. SaltLength is the usual choice.
func GenerateSalt(length uint32) ([]byte, error) {
	return randomBytes(int(length))
}

// GenerateNonce generates a random nonce for GCM encryption
func GenerateNonce() ([]byte, error) {
	return randomBytes(NonceLength)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-256-GCM under a fresh random nonce.
// The returned ciphertext carries the 16-byte tag at its end.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != KeyLength {
		return nil, nil, ErrInvalidKeyLength
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce, err = GenerateNonce()
	if err != nil {
		return nil, nil, err
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using AES-256-GCM. A wrong key and tampered data
// are reported identically as ErrDecryptionFailed.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(nonce) != NonceLength {
		return nil, ErrInvalidNonceLength
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// EncryptText encrypts UTF-8 text and returns nonce and ciphertext as standard
// base64.
func EncryptText(plaintext string, key []byte) (*Sealed, error) {
	ciphertext, nonce, err := Encrypt(key, []byte(plaintext))
	if err != nil {
		return nil, err
	}
	return &Sealed{
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
		Cipher: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptText reverses EncryptText. Inputs are validated in order: key length,
// nonce encoding and length, ciphertext encoding, authentication, then UTF-8.
func DecryptText(nonceB64, cipherB64 string, key []byte) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}

	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrInvalidBase64, err)
	}
	if len(nonce) != NonceLength {
		return "", ErrInvalidNonceLength
	}

	ciphertext, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return "", fmt.Errorf("%w: cipher: %v", ErrInvalidBase64, err)
	}

	plaintext, err := Decrypt(key, ciphertext, nonce)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(plaintext) {
		return "", ErrInvalidUTF8
	}
	return string(plaintext), nil
}

// ClearBytes zeroes a byte slice holding key material
func ClearBytes(b []byte) {
	clear(b)
}
