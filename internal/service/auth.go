// Package service contains the business logic of the account flow. Handlers
// translate requests into calls here and errors back into responses.
package service

import (
	"bitwise74/learning-api/config"
	"bitwise74/learning-api/internal/model"
	"bitwise74/learning-api/internal/store"
	"bitwise74/learning-api/pkg/security"
	"bitwise74/learning-api/pkg/validators"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	msgRegistered    = "Registration successful. Check your email to verify your account."
	msgManualVerify  = " (Email sending failed; contact admin to verify manually.)"
	msgResetSent     = "Password reset link sent to your email"
	msgResetFallback = "Email send failed. Use this reset link: "
)

type AuthService struct {
	store    *store.Store
	hasher   security.Hasher
	notifier Notifier
	resetTTL time.Duration
	now      func() time.Time
}

func NewAuthService(s *store.Store, h security.Hasher, n Notifier, cfg config.Auth) *AuthService {
	return &AuthService{
		store:    s,
		hasher:   h,
		notifier: n,
		resetTTL: cfg.ResetTTL,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	// Confirm is checked against Password when not empty
	Confirm  string
	FullName *string
}

type Registration struct {
	User      model.Snapshot
	Message   string
	Delivered bool
	// Link is the verification link, set when it couldn't be emailed
	Link string
}

// Register creates an unverified account and emails a verification link.
// A failed email doesn't fail the registration.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	email := store.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if err := validators.EmailValidator(email); err != nil {
		return nil, validation(err)
	}

	if err := validators.UsernameValidator(username); err != nil {
		return nil, validation(err)
	}

	if err := validators.PasswordValidator(in.Password); err != nil {
		return nil, validation(err)
	}

	if err := validators.ConfirmValidator(in.Password, in.Confirm); err != nil {
		return nil, validation(err)
	}

	taken, err := a.store.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		zap.L().Error("Failed to check if user is registered", zap.Error(err))
		return nil, internalErr(err)
	}

	if taken {
		return nil, ErrAccountTaken
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err))
		return nil, internalErr(err)
	}

	token, err := security.GenerateToken()
	if err != nil {
		zap.L().Error("Failed to generate verification token", zap.Error(err))
		return nil, internalErr(err)
	}

	u := &model.User{
		Email:             email,
		Username:          username,
		PasswordHash:      hash,
		FullName:          cleanName(in.FullName),
		Role:              model.RoleUser,
		VerificationToken: &token,
		CreatedAt:         a.now(),
	}

	if err := a.store.CreateUser(ctx, u); err != nil {
		// Someone else got there between the check and the insert
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAccountTaken
		}

		zap.L().Error("Failed to create user", zap.Error(err))
		return nil, internalErr(err)
	}

	reg := &Registration{
		User:      u.Snapshot(),
		Message:   msgRegistered,
		Delivered: true,
	}

	link, err := a.notifier.SendVerification(ctx, email, token)
	if err != nil {
		reg.Delivered = false
		reg.Message += msgManualVerify
		reg.Link = link
	}

	return reg, nil
}

// Login checks, in order, that the user exists, that the password matches and
// that the email has been verified. Each failure has its own message.
func (a *AuthService) Login(ctx context.Context, identifier, password string) (*model.Snapshot, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, validation(errors.New("no email or username provided"))
	}

	if password == "" {
		return nil, validation(validators.ErrPasswordEmpty)
	}

	u, err := a.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		zap.L().Error("Failed to look up user", zap.Error(err))
		return nil, internalErr(err)
	}

	ok, err := a.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		zap.L().Error("Failed to verify password", zap.Error(err), zap.Uint("userID", u.ID))
		return nil, internalErr(err)
	}

	if !ok {
		return nil, ErrIncorrectPassword
	}

	if !u.IsVerified {
		return nil, ErrNotVerified
	}

	now := a.now()
	if err := a.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		zap.L().Error("Failed to update last login", zap.Error(err), zap.Uint("userID", u.ID))
		return nil, internalErr(err)
	}
	u.LastLogin = &now

	s := u.Snapshot()
	return &s, nil
}

// VerifyEmail marks the owner of token as verified. Unknown or already used
// tokens return false without changing anything.
func (a *AuthService) VerifyEmail(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	u, err := a.store.FindByVerificationToken(ctx, token)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to look up verification token", zap.Error(err))
		}
		return false
	}

	if err := a.store.MarkVerified(ctx, u.ID, token); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to mark user as verified", zap.Error(err), zap.Uint("userID", u.ID))
		}
		return false
	}

	return true
}

type ResetRequest struct {
	Message string
}

// RequestPasswordReset issues a new reset token for email. Tokens issued
// earlier stay valid until used or expired.
func (a *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	email = store.NormalizeEmail(email)
	if err := validators.EmailValidator(email); err != nil {
		return nil, validation(err)
	}

	u, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoAccountForEmail
		}

		zap.L().Error("Failed to look up user", zap.Error(err))
		return nil, internalErr(err)
	}

	reset, err := security.MakeResetToken(&security.ResetTokenOpts{
		UserID: u.ID,
		TTL:    a.resetTTL,
		Now:    a.now(),
	})
	if err != nil {
		zap.L().Error("Failed to generate reset token", zap.Error(err))
		return nil, internalErr(err)
	}

	if err := a.store.CreateReset(ctx, reset); err != nil {
		zap.L().Error("Failed to store reset token", zap.Error(err), zap.Uint("userID", u.ID))
		return nil, internalErr(err)
	}

	link, err := a.notifier.SendReset(ctx, u.Email, reset.Token)
	if err != nil {
		return nil, &Error{
			Kind:    KindDelivery,
			Message: msgResetFallback + link,
			Link:    link,
			Err:     err,
		}
	}

	return &ResetRequest{Message: msgResetSent}, nil
}

// ResetPassword redeems a reset token. The token is spent and the password
// replaced together, or neither happens.
func (a *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := validators.PasswordValidator(password); err != nil {
		return validation(err)
	}

	if err := validators.ConfirmValidator(password, confirm); err != nil {
		return validation(err)
	}

	reset, err := a.store.FindReset(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}

		zap.L().Error("Failed to look up reset token", zap.Error(err))
		return internalErr(err)
	}

	if reset.Used {
		return ErrResetTokenUsed
	}

	if reset.Expired(a.now()) {
		return ErrResetTokenExpired
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err))
		return internalErr(err)
	}

	if err := a.store.ConsumeReset(ctx, reset.ID, reset.UserID, hash); err != nil {
		switch {
		case errors.Is(err, store.ErrTokenUsed):
			return ErrResetTokenUsed
		case errors.Is(err, store.ErrNotFound):
			return ErrResetTokenInvalid
		}

		zap.L().Error("Failed to reset password", zap.Error(err), zap.Uint("userID", reset.UserID))
		return internalErr(err)
	}

	return nil
}

// ChangePassword replaces the password of a signed in user after checking
// the current one.
func (a *AuthService) ChangePassword(ctx context.Context, userID uint, current, password, confirm string) error {
	if current == "" {
		return validation(errors.New("current password is required"))
	}

	if err := validators.PasswordValidator(password); err != nil {
		return validation(err)
	}

	if err := validators.ConfirmValidator(password, confirm); err != nil {
		return validation(err)
	}

	u, err := a.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountMissing
		}

		zap.L().Error("Failed to look up user", zap.Error(err), zap.Uint("userID", userID))
		return internalErr(err)
	}

	ok, err := a.hasher.Verify(current, u.PasswordHash)
	if err != nil {
		zap.L().Error("Failed to verify password", zap.Error(err), zap.Uint("userID", userID))
		return internalErr(err)
	}

	if !ok {
		return ErrIncorrectPassword
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err))
		return internalErr(err)
	}

	if err := a.store.UpdatePassword(ctx, userID, hash); err != nil {
		zap.L().Error("Failed to update password", zap.Error(err), zap.Uint("userID", userID))
		return internalErr(err)
	}

	return nil
}

func (a *AuthService) UpdateProfile(ctx context.Context, userID uint, fullName *string) (*model.Snapshot, error) {
	if fullName != nil && len(*fullName) > 128 {
		return nil, validation(errors.New("full name is too long"))
	}

	if err := a.store.UpdateFullName(ctx, userID, cleanName(fullName)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountMissing
		}

		zap.L().Error("Failed to update profile", zap.Error(err), zap.Uint("userID", userID))
		return nil, internalErr(err)
	}

	return a.Snapshot(ctx, userID)
}

// Snapshot returns the current state of a user.
func (a *AuthService) Snapshot(ctx context.Context, userID uint) (*model.Snapshot, error) {
	u, err := a.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountMissing
		}

		zap.L().Error("Failed to look up user", zap.Error(err), zap.Uint("userID", userID))
		return nil, internalErr(err)
	}

	s := u.Snapshot()
	return &s, nil
}

// EnsureAdmin creates a verified admin account unless the email or username
// is already registered.
func (a *AuthService) EnsureAdmin(ctx context.Context, email, username, password string) error {
	email = store.NormalizeEmail(email)
	username = strings.TrimSpace(username)

	for _, err := range []error{
		validators.EmailValidator(email),
		validators.UsernameValidator(username),
		validators.PasswordValidator(password),
	} {
		if err != nil {
			return validation(err)
		}
	}

	taken, err := a.store.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return internalErr(err)
	}

	if taken {
		return nil
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return internalErr(err)
	}

	err = a.store.CreateUser(ctx, &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsVerified:   true,
		CreatedAt:    a.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}

		return internalErr(err)
	}

	zap.L().Info("Admin account created", zap.String("username", username))
	return nil
}

func cleanName(name *string) *string {
	if name == nil {
		return nil
	}

	n := strings.TrimSpace(*name)
	if n == "" {
		return nil
	}

	return &n
}
