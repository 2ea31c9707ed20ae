package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
	"github.com/askmydocs/askmydocs/internal/pkg/jwt"
)

func newTestAuthService() (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	return NewAuthService(users, []byte("test-secret"), time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()

	user, token, err := svc.Register(context.Background(), "User@Example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", user.Email)
	require.NotEmpty(t, user.ID)

	claims, err := jwt.ParseToken(token, []byte("test-secret"))
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	loggedIn, _, err := svc.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService()

	_, _, err := svc.Register(context.Background(), "not-an-email", "password123")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, _, err = svc.Register(context.Background(), "a@b.c", "short")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	_, _, err := svc.Register(context.Background(), "a@b.c", "password123")
	require.NoError(t, err)
	_, _, err = svc.Register(context.Background(), "a@b.c", "password456")
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestAuthService()
	_, _, err := svc.Register(context.Background(), "a@b.c", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@b.c", "wrong-password")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "nobody@b.c", "password123")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}
