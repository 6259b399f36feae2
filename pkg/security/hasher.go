package security

import (
	"bitwise74/learning-api/pkg/validators"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns passwords into salted one-way hashes and checks them.
type Hasher interface {
	Hash(p string) (string, error)
	Verify(p, hash string) (bool, error)
}

type BcryptHash struct {
	Cost int
}

func NewBcrypt(cost int) *BcryptHash {
	return &BcryptHash{Cost: cost}
}

func (b *BcryptHash) Hash(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

// Verify never matches a password longer than bcrypt's input limit, since
// bcrypt would only compare its first 72 bytes.
func (b *BcryptHash) Verify(p, hash string) (bool, error) {
	if len(p) > validators.PasswordMaxLen {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}

// MultiHasher hashes with one algorithm but verifies hashes made by either,
// so switching algorithms doesn't lock existing users out.
type MultiHasher struct {
	primary Hasher
	bcrypt  *BcryptHash
	argon   *ArgonHash
}

// NewHasher returns a MultiHasher that hashes new passwords with algo,
// either "bcrypt" or "argon2id".
func NewHasher(algo string, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: NewBcrypt(bcryptCost),
		argon:  NewArgon(),
	}

	switch algo {
	case "bcrypt":
		m.primary = m.bcrypt
	case "argon2id":
		m.primary = m.argon
	default:
		return nil, fmt.Errorf("unknown password hasher %q", algo)
	}

	return m, nil
}

func (m *MultiHasher) Hash(p string) (string, error) {
	return m.primary.Hash(p)
}

func (m *MultiHasher) Verify(p, hash string) (bool, error) {
	if strings.HasPrefix(hash, argonPrefix) {
		return m.argon.Verify(p, hash)
	}

	return m.bcrypt.Verify(p, hash)
}
