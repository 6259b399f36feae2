package security

import (
	"bitwise74/learning-api/internal/model"
	"encoding/base64"
	"errors"
	"time"
)

const tokenSize = 32

// GenerateToken returns tokenSize random bytes as unpadded URL-safe base64.
func GenerateToken() (string, error) {
	b, err := genRandByt(tokenSize)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

type ResetTokenOpts struct {
	UserID uint
	TTL    time.Duration
	// Now defaults to time.Now
	Now time.Time
}

func MakeResetToken(o *ResetTokenOpts) (*model.PasswordReset, error) {
	if o == nil {
		return nil, errors.New("no token options provided")
	}

	if o.UserID == 0 {
		return nil, errors.New("no user ID provided")
	}

	if o.TTL <= 0 {
		return nil, errors.New("no expiry provided")
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &model.PasswordReset{
		UserID:    o.UserID,
		Token:     token,
		ExpiresAt: now.Add(o.TTL),
		CreatedAt: now,
		Used:      false,
	}, nil
}
