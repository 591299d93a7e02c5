// Package cryptox derives password verifiers for stored accounts and hashes
// one-time reset tokens.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a freshly generated account salt.
const SaltSize = 32

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// PasswordVerifier is MakeVerifier(DeriveMasterKey(password, salt)).
func PasswordVerifier(password []byte, salt []byte) []byte {
	return MakeVerifier(DeriveMasterKey(password, salt))
}

// CheckPassword reports whether password reproduces verifier under salt.
// The comparison is constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	return subtle.ConstantTimeCompare(PasswordVerifier(password, salt), verifier) == 1
}

// HashToken returns the SHA-256 digest of a reset token. Only digests are
// persisted.
func HashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
