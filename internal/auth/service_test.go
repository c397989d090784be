package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key")

func setup(t *testing.T) (*Service, *store.Store) {
	st := store.New(testutil.NewTestDB(t))
	return NewService(testSecret, st), st
}

func registerReq() RegisterRequest {
	return RegisterRequest{
		Email:       "alice@test.com",
		Username:    "alice",
		Password:    "hunter2hunter2",
		DisplayName: "Alice",
	}
}

func TestRegister(t *testing.T) {
	svc, st := setup(t)

	resp, err := svc.Register(registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	// the stored hash is bcrypt, never the raw password
	user, err := st.GetUserByEmail("alice@test.com")
	require.NoError(t, err)
	require.NotNil(t, user.PasswordHash)
	assert.NotContains(t, *user.PasswordHash, "hunter2")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Register(registerReq())
	require.NoError(t, err)

	dup := registerReq()
	dup.Username = "alice2"
	_, err = svc.Register(dup)
	assert.Equal(t, apperrors.ErrAlreadyExists, apperrors.CodeOf(err))
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Register(registerReq())
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{Email: "alice@test.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)

	// email matching is case-insensitive
	_, err = svc.Login(LoginRequest{Email: "ALICE@test.com", Password: "hunter2hunter2"})
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Register(registerReq())
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{Email: "alice@test.com", Password: "wrong-password"})
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))

	// unknown accounts get the same answer as bad passwords
	_, err = svc.Login(LoginRequest{Email: "nobody@test.com", Password: "whatever"})
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestValidateToken(t *testing.T) {
	svc, _ := setup(t)
	resp, err := svc.Register(registerReq())
	require.NoError(t, err)

	user, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := setup(t)
	resp, err := svc.Register(registerReq())
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token + "x")
	assert.Error(t, err)

	// a token signed with a different secret fails
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": resp.User.ID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	forged, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, _ := setup(t)
	resp, err := svc.Register(registerReq())
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": resp.User.ID,
		"exp":     time.Now().Add(-time.Hour).Unix(),
		"iat":     time.Now().Add(-2 * time.Hour).Unix(),
	})
	tokenString, err := expired.SignedString(testSecret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenForDeletedUser(t *testing.T) {
	svc, st := setup(t)
	resp, err := svc.Register(registerReq())
	require.NoError(t, err)

	require.NoError(t, st.DB().Exec("DELETE FROM users WHERE id = ?", resp.User.ID).Error)

	_, err = svc.ValidateToken(resp.Token)
	assert.Error(t, err)
}
