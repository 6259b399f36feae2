package service

import (
	"bitwise74/learning-api/internal/model"
	"bitwise74/learning-api/pkg/validators"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_RegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, RegisterInput{Email: "a@x.com", Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, reg.Delivered)
	assert.Equal(t, msgRegistered, reg.Message)
	assert.False(t, reg.User.IsVerified)

	_, err = f.auth.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, ErrNotVerified)
	assert.Contains(t, err.Error(), "not verified")

	token := f.mail.lastVerification(t).token
	assert.True(t, f.auth.VerifyEmail(ctx, token))

	snap, err := f.auth.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)
	assert.True(t, snap.IsVerified)
	assert.Equal(t, model.RoleUser, snap.Role)
}

func TestScenario_ResetUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.RequestPasswordReset(context.Background(), "unknown@x.com")
	require.ErrorIs(t, err, ErrNoAccountForEmail)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, f.mail.resets)
}

func TestScenario_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "alice", "secret1")

	_, err := f.auth.Register(ctx, RegisterInput{Email: "A@x.com", Username: "someone", Password: "secret1"})
	require.ErrorIs(t, err, ErrAccountTaken)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Email or username already in use", err.Error())

	_, err = f.auth.Register(ctx, RegisterInput{Email: "b@x.com", Username: "alice", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAccountTaken)

	assert.Len(t, f.mail.verifications, 1)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"no email", RegisterInput{Username: "alice", Password: "secret1"}, validators.ErrEmailEmpty},
		{"bad email", RegisterInput{Email: "nope", Username: "alice", Password: "secret1"}, validators.ErrEmailInvalid},
		{"bad username", RegisterInput{Email: "a@x.com", Username: "a b", Password: "secret1"}, validators.ErrUsernameInvalid},
		{"short password", RegisterInput{Email: "a@x.com", Username: "alice", Password: "abc"}, validators.ErrPasswordTooShort},
		{"mismatch", RegisterInput{Email: "a@x.com", Username: "alice", Password: "secret1", Confirm: "secret2"}, validators.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	// Nothing reached the store
	page, err := f.admin.ListUsers(context.Background(), "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestRegister_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.mail.err = ErrMailNotConfigured

	reg, err := f.auth.Register(context.Background(), RegisterInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "secret1",
		FullName: ptr("  Alice  "),
	})
	require.NoError(t, err)

	assert.False(t, reg.Delivered)
	assert.Equal(t, msgRegistered+msgManualVerify, reg.Message)
	assert.Equal(t, "http://localhost:8501?verify="+f.mail.lastVerification(t).token, reg.Link)
	require.NotNil(t, reg.User.FullName)
	assert.Equal(t, "Alice", *reg.User.FullName)

	// The account exists regardless
	u, err := f.store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestLogin_DistinctFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u@x.com", "unverified", "secret1")
	f.verified(t, "v@x.com", "verified", "secret1")

	_, err := f.auth.Login(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.auth.Login(ctx, "verified", "wrong-pass")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	// Password is checked before verification
	_, err = f.auth.Login(ctx, "unverified", "wrong-pass")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.auth.Login(ctx, "unverified", "secret1")
	assert.ErrorIs(t, err, ErrNotVerified)

	msgs := map[string]bool{}
	for _, e := range []*Error{ErrUserNotFound, ErrIncorrectPassword, ErrNotVerified} {
		assert.Equal(t, KindAuth, e.Kind)
		msgs[e.Message] = true
	}
	assert.Len(t, msgs, 3)

	_, err = f.auth.Login(ctx, "", "secret1")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestLogin_LongPasswordPrefix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := strings.Repeat("a", validators.PasswordMaxLen)
	reg := f.verified(t, "a@x.com", "alice", p)

	_, err := f.auth.Login(ctx, "alice", p+"X")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = f.auth.ChangePassword(ctx, reg.User.ID, p+"X", "newpass1", "newpass1")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.auth.Login(ctx, "alice", p)
	assert.NoError(t, err)
}

func TestLogin_StampsLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.verified(t, "a@x.com", "alice", "secret1")

	snap, err := f.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, snap.ID)

	u, err := f.store.FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.True(t, f.clock.Equal(*u.LastLogin))

	// Email lookups ignore case
	_, err = f.auth.Login(ctx, "A@X.com", "secret1")
	assert.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.register(t, "a@x.com", "alice", "secret1")

	assert.False(t, f.auth.VerifyEmail(ctx, ""))
	assert.False(t, f.auth.VerifyEmail(ctx, "not-a-token"))

	u, err := f.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)

	assert.True(t, f.auth.VerifyEmail(ctx, token))
	assert.False(t, f.auth.VerifyEmail(ctx, token))

	u, err = f.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Nil(t, u.VerificationToken)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "alice", "secret1")

	res, err := f.auth.RequestPasswordReset(ctx, " A@x.com")
	require.NoError(t, err)
	assert.Equal(t, msgResetSent, res.Message)

	last := f.mail.lastReset(t)
	assert.Equal(t, "a@x.com", last.to)

	r, err := f.store.FindReset(ctx, last.token)
	require.NoError(t, err)
	assert.True(t, f.clock.Add(time.Hour).Equal(r.ExpiresAt))
	assert.False(t, r.Used)
}

func TestRequestPasswordReset_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "alice", "secret1")
	f.mail.err = &DeliveryError{Err: errors.New("connection refused")}

	_, err := f.auth.RequestPasswordReset(ctx, "a@x.com")
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	link := "http://localhost:8501?reset=" + f.mail.lastReset(t).token
	assert.Equal(t, KindDelivery, e.Kind)
	assert.Equal(t, link, e.Link)
	assert.Equal(t, "Email send failed. Use this reset link: "+link, e.Message)
	assert.ErrorIs(t, err, ErrMailDelivery)

	// The token is stored and usable through the fallback link
	require.NoError(t, f.auth.ResetPassword(ctx, f.mail.lastReset(t).token, "newpass1", ""))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "alice", "secret1")

	_, err := f.auth.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.mail.lastReset(t).token

	require.NoError(t, f.auth.ResetPassword(ctx, token, "newpass1", "newpass1"))

	_, err = f.auth.Login(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.auth.Login(ctx, "alice", "newpass1")
	assert.NoError(t, err)

	err = f.auth.ResetPassword(ctx, token, "another1", "")
	assert.ErrorIs(t, err, ErrResetTokenUsed)

	err = f.auth.ResetPassword(ctx, "bogus", "another1", "")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	err = f.auth.ResetPassword(ctx, token, "x", "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestResetPassword_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "alice", "secret1")

	_, err := f.auth.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.mail.lastReset(t).token

	issued := f.clock

	// Exactly at the expiry timestamp the token is already dead
	f.clock = issued.Add(time.Hour)
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "newpass1", ""), ErrResetTokenExpired)

	f.clock = issued.Add(2 * time.Hour)
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "newpass1", ""), ErrResetTokenExpired)

	f.clock = issued.Add(59 * time.Minute)
	assert.NoError(t, f.auth.ResetPassword(ctx, token, "newpass1", ""))
}

func TestResetPassword_OlderTokensStayValid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "alice", "secret1")

	for i := 0; i < 2; i++ {
		_, err := f.auth.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
	}
	require.Len(t, f.mail.resets, 2)

	require.NoError(t, f.auth.ResetPassword(ctx, f.mail.resets[1].token, "newpass1", ""))
	require.NoError(t, f.auth.ResetPassword(ctx, f.mail.resets[0].token, "newpass2", ""))

	_, err := f.auth.Login(ctx, "alice", "newpass2")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.verified(t, "a@x.com", "alice", "secret1")

	err := f.auth.ChangePassword(ctx, reg.User.ID, "wrong-pass", "newpass1", "newpass1")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = f.auth.ChangePassword(ctx, reg.User.ID, "secret1", "newpass1", "other")
	assert.ErrorIs(t, err, validators.ErrPasswordMismatch)

	require.NoError(t, f.auth.ChangePassword(ctx, reg.User.ID, "secret1", "newpass1", "newpass1"))

	_, err = f.auth.Login(ctx, "alice", "newpass1")
	assert.NoError(t, err)

	err = f.auth.ChangePassword(ctx, 9999, "secret1", "newpass1", "")
	assert.ErrorIs(t, err, ErrAccountMissing)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.verified(t, "a@x.com", "alice", "secret1")

	snap, err := f.auth.UpdateProfile(ctx, reg.User.ID, ptr(" Alice Liddell "))
	require.NoError(t, err)
	require.NotNil(t, snap.FullName)
	assert.Equal(t, "Alice Liddell", *snap.FullName)

	snap, err = f.auth.UpdateProfile(ctx, reg.User.ID, ptr("   "))
	require.NoError(t, err)
	assert.Nil(t, snap.FullName)

	_, err = f.auth.UpdateProfile(ctx, 9999, ptr("x"))
	assert.ErrorIs(t, err, ErrAccountMissing)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx, "root@x.com", "root", "rootpass"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "root@x.com", "root", "rootpass"))

	snap, err := f.auth.Login(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.True(t, snap.IsAdmin())
	assert.True(t, snap.IsVerified)

	page, err := f.admin.ListUsers(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	assert.Error(t, f.auth.EnsureAdmin(ctx, "bad", "root", "rootpass"))
}

func ptr[T any](v T) *T { return &v }
