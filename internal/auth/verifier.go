package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a presented admin secret
type Verifier interface {
	Verify(secret string) bool
}

// PlainVerifier compares against a configured password in constant time
type PlainVerifier struct {
	password []byte
}

// NewPlainVerifier creates a verifier for a plaintext password
func NewPlainVerifier(password string) *PlainVerifier {
	return &PlainVerifier{password: []byte(password)}
}

// Verify implements Verifier
func (v *PlainVerifier) Verify(secret string) bool {
	if len(v.password) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), v.password) == 1
}

// BcryptVerifier compares against a bcrypt hash of the password
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates a verifier from a bcrypt hash
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// Verify implements Verifier
func (v *BcryptVerifier) Verify(secret string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(secret)) == nil
}

// NewVerifier picks the bcrypt verifier when a hash is configured and falls
// back to the plaintext password otherwise
func NewVerifier(password, hash string) (Verifier, error) {
	if hash != "" {
		return NewBcryptVerifier(hash)
	}
	return NewPlainVerifier(password), nil
}
