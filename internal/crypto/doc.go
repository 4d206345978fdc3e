// Package crypto is the cryptographic core: Argon2id password hashing and
// verification, Argon2id key derivation, AES-256-GCM encryption of UTF-8 text,
// and random key material.
//
// Every function is stateless and safe for concurrent use. Errors split into a
// fatal tier (see IsFatal) for a broken environment and a recoverable tier for
// bad caller input. No error message contains key, password or plaintext bytes.
package crypto
