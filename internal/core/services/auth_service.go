package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/adapters/persistence/repositories"
	"offertrack/internal/core/domain"
	"offertrack/internal/pkg/password"
)

// dummyHash is compared against when the login name matches no member,
// so lookup misses and password misses take comparable time.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService issues and validates bearer tokens. One active token per
// member: each login overwrites the previous one. When tokenTTL is
// non-zero, tokens older than the TTL stop validating; the default of
// zero keeps tokens valid until the next login.
type AuthService struct {
	members  repositories.MemberRepository
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(members repositories.MemberRepository, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		members:  members,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Login authenticates by username or email and issues a fresh bearer
// token. Bad username and bad password both come back as
// domain.ErrInvalidCredentials, without revealing which.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, pass string) (*models.MemberResponse, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)

	verr := domain.NewValidationError()
	if usernameOrEmail == "" {
		verr.Add("username", "Username is required")
	}
	if pass == "" {
		verr.Add("password", "Password is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	member, err := s.members.GetByLogin(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			password.Verify(pass, dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(pass, member.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := password.NewToken()
	if err != nil {
		return nil, err
	}

	if err := s.members.SetToken(ctx, member.ID, token, s.now()); err != nil {
		return nil, err
	}

	log.Printf("member logged in: %s", member.Username)
	return member.ToResponse(token), nil
}

// ValidateToken resolves a bearer token to its member, or fails with
// domain.ErrUnauthorized.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Member, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	member, err := s.members.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if s.tokenTTL > 0 {
		if member.TokenIssuedAt == nil || s.now().Sub(*member.TokenIssuedAt) > s.tokenTTL {
			return nil, domain.ErrUnauthorized
		}
	}

	return member, nil
}
