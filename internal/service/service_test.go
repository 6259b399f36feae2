package service

import (
	"bitwise74/learning-api/config"
	"bitwise74/learning-api/internal/store"
	"bitwise74/learning-api/internal/testutil"
	"bitwise74/learning-api/pkg/security"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sent struct {
	to, token string
}

type fakeNotifier struct {
	mu            sync.Mutex
	err           error
	verifications []sent
	resets        []sent
}

func (f *fakeNotifier) SendVerification(_ context.Context, to, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifications = append(f.verifications, sent{to, token})
	return "http://localhost:8501?verify=" + token, f.err
}

func (f *fakeNotifier) SendReset(_ context.Context, to, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets = append(f.resets, sent{to, token})
	return "http://localhost:8501?reset=" + token, f.err
}

func (f *fakeNotifier) lastVerification(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.verifications)
	return f.verifications[len(f.verifications)-1]
}

func (f *fakeNotifier) lastReset(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.resets)
	return f.resets[len(f.resets)-1]
}

type fixture struct {
	auth  *AuthService
	admin *AdminService
	store *store.Store
	mail  *fakeNotifier
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	h, err := security.NewHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		store: store.New(testutil.NewDB(t)),
		mail:  &fakeNotifier{},
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	f.auth = NewAuthService(f.store, h, f.mail, config.Auth{ResetTTL: time.Hour})
	f.auth.now = func() time.Time { return f.clock }

	f.admin = NewAdminService(f.store)
	f.admin.now = func() time.Time { return f.clock }

	return f
}

// register creates a user and returns the token that was mailed to them.
func (f *fixture) register(t *testing.T, email, username, password string) (*Registration, string) {
	t.Helper()

	reg, err := f.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Username: username,
		Password: password,
	})
	require.NoError(t, err)

	return reg, f.mail.lastVerification(t).token
}

// verified registers a user and verifies their email.
func (f *fixture) verified(t *testing.T, email, username, password string) *Registration {
	t.Helper()

	reg, token := f.register(t, email, username, password)
	require.True(t, f.auth.VerifyEmail(context.Background(), token))

	return reg
}
