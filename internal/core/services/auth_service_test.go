package services

import (
	"context"
	"testing"
	"time"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/core/domain"
	"offertrack/internal/pkg/password"

	"github.com/stretchr/testify/require"
)

func seedMember(t *testing.T) *models.Member {
	t.Helper()
	hash, err := password.Hash("s3cret-pass")
	require.NoError(t, err)
	return &models.Member{
		ID:       1,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: hash,
		Admin:    true,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newMemMemberRepo(seedMember(t))
	svc := NewAuthService(repo, 0)

	user, err := svc.Login(context.Background(), "jdoe", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, uint(1), user.ID)
	require.True(t, user.Admin)
	// 32 bytes of entropy, hex encoded
	require.Len(t, user.Token, 64)

	member, err := svc.ValidateToken(context.Background(), user.Token)
	require.NoError(t, err)
	require.Equal(t, "jdoe", member.Username)
}

func TestLoginByEmail(t *testing.T) {
	repo := newMemMemberRepo(seedMember(t))
	svc := NewAuthService(repo, 0)

	user, err := svc.Login(context.Background(), "jdoe@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "jdoe", user.Username)
}

func TestLoginOverwritesPriorToken(t *testing.T) {
	repo := newMemMemberRepo(seedMember(t))
	svc := NewAuthService(repo, 0)

	first, err := svc.Login(context.Background(), "jdoe", "s3cret-pass")
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), "jdoe", "s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// Single active session: the old token no longer validates
	_, err = svc.ValidateToken(context.Background(), first.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.ValidateToken(context.Background(), second.Token)
	require.NoError(t, err)
}

func TestLoginValidation(t *testing.T) {
	svc := NewAuthService(newMemMemberRepo(), 0)

	_, err := svc.Login(context.Background(), "  ", "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, map[string]string{
		"username": "Username is required",
		"password": "Password is required",
	}, verr.Fields)
}

func TestLoginBadCredentials(t *testing.T) {
	repo := newMemMemberRepo(seedMember(t))
	svc := NewAuthService(repo, 0)

	// Wrong password and unknown user fail identically
	_, err := svc.Login(context.Background(), "jdoe", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody", "s3cret-pass")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateTokenRejectsBlankAndUnknown(t *testing.T) {
	svc := NewAuthService(newMemMemberRepo(), 0)

	_, err := svc.ValidateToken(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.ValidateToken(context.Background(), "deadbeef")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateTokenHonorsTTL(t *testing.T) {
	repo := newMemMemberRepo(seedMember(t))
	svc := NewAuthService(repo, time.Hour)

	user, err := svc.Login(context.Background(), "jdoe", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), user.Token)
	require.NoError(t, err)

	// Jump past the TTL
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(context.Background(), user.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
