package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticator_InitWithoutStoredUser(t *testing.T) {
	a := NewAuthenticator(NewKeyStore(t.TempDir()), &MockVerifier{}, quietLogger())

	_, ok := a.Init().CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, a.Session().Token())
}

func TestAuthenticator_InitWithCorruptValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CurrentUserKey+".json"), []byte("{not json"), 0o600))

	a := NewAuthenticator(NewKeyStore(dir), &MockVerifier{}, quietLogger())
	_, ok := a.Init().CurrentUser()
	assert.False(t, ok)
}

func TestAuthenticator_LoginPersistsWithoutPassword(t *testing.T) {
	dir := t.TempDir()
	v := &MockVerifier{}
	v.On("Login", mock.Anything, "siti@rs.id", "rahasia").
		Return(&domain.User{ID: "u1", Name: "Siti", Email: "siti@rs.id", Password: "rahasia", Role: domain.RoleWardStaff, WardID: "w1"}, "tok", nil)

	a := NewAuthenticator(NewKeyStore(dir), v, quietLogger())
	a.Init()
	u, err := a.Login(context.Background(), " siti@rs.id ", "rahasia")
	require.NoError(t, err)
	assert.Empty(t, u.Password)

	raw, err := os.ReadFile(filepath.Join(dir, CurrentUserKey+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "rahasia")

	// a fresh client restores the same user
	restored := NewAuthenticator(NewKeyStore(dir), v, quietLogger()).Init()
	got, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "w1", got.WardID)
	assert.Equal(t, "tok", restored.Token())
}

func TestAuthenticator_LoginFailure(t *testing.T) {
	v := &MockVerifier{}
	v.On("Login", mock.Anything, "x@rs.id", "bad").Return(nil, "", errors.New("invalid email or password"))

	a := NewAuthenticator(NewKeyStore(t.TempDir()), v, quietLogger())
	_, err := a.Login(context.Background(), "x@rs.id", "bad")
	assert.EqualError(t, err, "invalid email or password")

	_, ok := a.Session().CurrentUser()
	assert.False(t, ok)

	_, err = a.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestAuthenticator_Logout(t *testing.T) {
	dir := t.TempDir()
	v := &MockVerifier{}
	v.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(&domain.User{ID: "u1", Role: domain.RoleAdmin}, "tok", nil)

	a := NewAuthenticator(NewKeyStore(dir), v, quietLogger())
	_, err := a.Login(context.Background(), "a@rs.id", "pw")
	require.NoError(t, err)
	require.NoError(t, a.Logout())

	_, ok := a.Session().CurrentUser()
	assert.False(t, ok)
	_, ok = NewAuthenticator(NewKeyStore(dir), v, quietLogger()).Init().CurrentUser()
	assert.False(t, ok)

	assert.NoError(t, a.Logout(), "logging out twice is fine")
}

func TestKeyStore_RejectsPathKeys(t *testing.T) {
	s := NewKeyStore(t.TempDir())
	assert.Error(t, s.Set("../escape", []byte("x")))

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
