package store

import (
	"bitwise74/learning-api/internal/model"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ListUsers returns one page of users ordered by id together with the total
// number of users matching search.
func (s *Store) ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.User{})

	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR LOWER(COALESCE(full_name, '')) LIKE ?", like, like, like)
	}

	// Shared by the count and the page query
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := q.Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).
		Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// DeleteUser removes a user and everything they own.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.ChatMessage{}, &model.LearningProgress{}, &model.PasswordReset{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		r := tx.Where("id = ?", id).Delete(&model.User{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// Overview counts users and outstanding reset tokens as of now.
func (s *Store) Overview(ctx context.Context, now time.Time) (*model.Overview, error) {
	var o model.Overview
	db := s.db.WithContext(ctx)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&o.TotalUsers, db.Model(&model.User{})},
		{&o.VerifiedUsers, db.Model(&model.User{}).Where("is_verified = ?", true)},
		{&o.Admins, db.Model(&model.User{}).Where("role = ?", model.RoleAdmin)},
		{&o.LastDayLogins, db.Model(&model.User{}).Where("last_login >= ?", now.Add(-24*time.Hour))},
		{&o.OpenResets, db.Model(&model.PasswordReset{}).Where("used = ? AND expires_at > ?", false, now)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	return &o, nil
}
