package encryption

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length of the random salt stored in every container.
	SaltSize = 16
	// KeySize is the length of the password-derived key.
	KeySize = 32
	// DefaultIterations is the PBKDF2-HMAC-SHA256 iteration count.
	// It is not recorded in the container, so encryption and decryption must agree on it.
	DefaultIterations = 480_000
)

// NewSalt returns SaltSize fresh random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	return salt, nil
}

// DeriveKey stretches password with PBKDF2-HMAC-SHA256 over salt.
// Empty passwords are rejected.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrKeyDerivation, SaltSize, len(salt))
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidInput)
	}

	if iterations <= 0 {
		return nil, fmt.Errorf("%w: iteration count must be positive, got %d", ErrInvalidInput, iterations)
	}

	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}

// deriveSubKeys expands key into n bytes of cipher-specific key material.
// info separates the key schedules of the different chunk ciphers.
func deriveSubKeys(key []byte, info string, n int) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, key, nil, []byte(info))
	derived := make([]byte, n)

	if _, err := io.ReadFull(hkdfReader, derived); err != nil {
		return nil, fmt.Errorf("deriving %s keys: %w", info, err)
	}

	return derived, nil
}

// clearBytes overwrites b with zeros.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
