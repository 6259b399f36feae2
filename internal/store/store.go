// Package store is the credential store. Every read and write of user and
// reset records goes through it.
package store

import (
	"bitwise74/learning-api/internal/model"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("email or username already exists")
	ErrTokenUsed = errors.New("reset token already used")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NormalizeEmail is applied on every write and lookup of an email address.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *Store) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ? OR username = ?", NormalizeEmail(email), strings.TrimSpace(username)).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// CreateUser inserts u in a single statement. A unique constraint violation
// is reported as ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	u.Username = strings.TrimSpace(u.Username)

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}

		return err
	}

	return nil
}

// FindByIdentifier looks a user up by email or username. If the identifier
// is one user's email and another's username the email match is returned.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	ident := strings.TrimSpace(identifier)
	email := NormalizeEmail(identifier)

	var u model.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", email, ident).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN email = ? THEN 0 ELSE 1 END",
			Vars:               []any{email},
			WithoutParentheses: true,
		}}).
		Take(&u).
		Error

	return one(&u, err)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error

	return one(&u, err)
}

func (s *Store) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error

	return one(&u, err)
}

func (s *Store) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var u model.User
	err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&u).Error

	return one(&u, err)
}

// MarkVerified sets the verified flag and clears the token, but only while
// the stored token is still token. It returns ErrNotFound otherwise.
func (s *Store) MarkVerified(ctx context.Context, id uint, token string) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND verification_token = ?", id, token).
		Updates(map[string]any{
			"is_verified":        true,
			"verification_token": nil,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.update(ctx, id, "last_login", at)
}

func (s *Store) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.update(ctx, id, "password_hash", hash)
}

func (s *Store) UpdateFullName(ctx context.Context, id uint, name *string) error {
	return s.update(ctx, id, "full_name", name)
}

func (s *Store) SetRole(ctx context.Context, id uint, role string) error {
	return s.update(ctx, id, "role", role)
}

func (s *Store) update(ctx context.Context, id uint, column string, value any) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update(column, value)
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func one(u *model.User, err error) (*model.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return u, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// Not every driver gets translated
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
