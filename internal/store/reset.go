package store

import (
	"bitwise74/learning-api/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

func (s *Store) CreateReset(ctx context.Context, r *model.PasswordReset) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) FindReset(ctx context.Context, token string) (*model.PasswordReset, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var r model.PasswordReset
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &r, nil
}

// ConsumeReset marks the reset as used and stores the new password hash in
// one transaction. If another request consumed the token first nothing is
// written and ErrTokenUsed is returned.
func (s *Store) ConsumeReset(ctx context.Context, resetID, userID uint, hash string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.PasswordReset{}).
			Where("id = ? AND user_id = ? AND used = ?", resetID, userID, false).
			Update("used", true)
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrTokenUsed
		}

		r = tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("password_hash", hash)
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}
