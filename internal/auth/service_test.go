package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store UserStore) *Service {
	return NewService(store, NewTokens("test-secret", time.Hour))
}

func TestRegisterIssuesToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	user, token, err := svc.Register(context.Background(), "Ann", "ann@x.com", "pw123", RoleCustomer)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.NotEqual(t, "pw123", user.PasswordHash)
	assert.True(t, CheckPassword(user.PasswordHash, "pw123"))

	subject, err := svc.Tokens().ParseAndVerify(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	_, _, err := svc.Register(context.Background(), "Ann", "ann@x.com", "pw123", RoleCustomer)
	require.NoError(t, err)

	user, token, err := svc.Register(context.Background(), "Other Ann", "ann@x.com", "pw456", RoleAdmin)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, user)
	assert.Empty(t, token)

	// The original registration is untouched and no second row exists.
	assert.Len(t, store.users, 1)
	assert.Equal(t, "Ann", store.users["ann@x.com"].Name)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	_, _, err := svc.Register(context.Background(), "Ann", "ann@x.com", "pw123", RoleCustomer)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ann@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	_, _, err := svc.Login(context.Background(), "ghost@x.com", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, errors.Is(err, ErrUserNotFound), "store detail must not leak")
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	_, _, err := svc.Register(context.Background(), "Ann", "ann@x.com", "pw123", RoleCustomer)
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "ann@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", user.Email)

	subject, err := svc.Tokens().ParseAndVerify(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)
}
