package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCookie = errors.New("session cookie invalid")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signer signs session IDs before they are handed to the client so a cookie
// can't be forged or tampered with.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(sessionID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})

	return t.SignedString(s.secret)
}

// Parse validates a cookie value and returns the session ID inside.
func (s *Signer) Parse(value string) (string, error) {
	var c claims

	_, err := jwt.ParseWithClaims(value, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w, %w", ErrInvalidCookie, err)
	}

	if c.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return c.SessionID, nil
}
