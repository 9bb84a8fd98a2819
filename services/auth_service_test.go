package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
)

func TestAuthService_RegisterLoginValidate(t *testing.T) {
	req := require.New(t)
	env := newSQLiteEnv(t)
	auth := NewAuthService(env.users, "secret", 60)
	ctx := context.Background()

	registered, err := auth.Register(ctx, &models.CreateUserRequest{
		Username: "alice", Password: "password123", DisplayName: "Alice",
	})
	req.NoError(err)
	req.NotEmpty(registered.AccessToken)
	req.Empty(registered.User.PasswordHash)
	req.Equal("Alice", *registered.User.DisplayName)

	claims, err := auth.ValidateAccessToken(registered.AccessToken)
	req.NoError(err)
	req.Equal(registered.User.ID, claims.UserID)
	req.Equal("alice", claims.Username)

	loggedIn, err := auth.Login(ctx, &models.LoginRequest{Username: "ALICE", Password: "password123"})
	req.NoError(err)
	req.Equal(registered.User.ID, loggedIn.User.ID)
}

func TestAuthService_RegisterErrors(t *testing.T) {
	req := require.New(t)
	env := newSQLiteEnv(t, "bob")
	auth := NewAuthService(env.users, "secret", 60)
	ctx := context.Background()

	_, err := auth.Register(ctx, &models.CreateUserRequest{Username: "bob", Password: "password123"})
	req.ErrorIs(err, pkg.ErrAlreadyExists)

	_, err = auth.Register(ctx, &models.CreateUserRequest{Username: "x", Password: "password123"})
	req.ErrorIs(err, pkg.ErrValidation)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	req := require.New(t)
	env := newSQLiteEnv(t)
	auth := NewAuthService(env.users, "secret", 60)
	ctx := context.Background()
	_, err := auth.Register(ctx, &models.CreateUserRequest{Username: "carol", Password: "password123"})
	req.NoError(err)

	_, wrongPass := auth.Login(ctx, &models.LoginRequest{Username: "carol", Password: "nope-nope"})
	_, noUser := auth.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "nope-nope"})

	req.ErrorIs(wrongPass, pkg.ErrUnauthorized)
	req.ErrorIs(noUser, pkg.ErrUnauthorized)
	req.Equal(wrongPass.Error(), noUser.Error())
}

func TestAuthService_ValidateRejectsForeignTokens(t *testing.T) {
	req := require.New(t)
	auth := NewAuthService(nil, "secret", 60)
	now := time.Now()
	claims := &models.TokenClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	req.NoError(err)
	_, err = auth.ValidateAccessToken(otherSecret)
	req.ErrorIs(err, pkg.ErrUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	req.NoError(err)
	_, err = auth.ValidateAccessToken(unsigned)
	req.ErrorIs(err, pkg.ErrUnauthorized)

	claims.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	req.NoError(err)
	_, err = auth.ValidateAccessToken(expired)
	req.ErrorIs(err, pkg.ErrUnauthorized)
}
