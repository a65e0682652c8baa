// Package service contains application services for authentication and table access.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/nutrito/internal/crypto"
	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/limiter"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// AuthService defines account and session operations.
type AuthService interface {
	// SignUp creates a new account.
	SignUp(ctx context.Context, email, password string) (model.AuthUser, error)
	// SignInWithPassword applies rate limiting and issues a session.
	SignInWithPassword(ctx context.Context, email, password, ip string) (model.Session, error)
	// Authenticate validates an access token and returns its user.
	Authenticate(ctx context.Context, token string) (model.AuthUser, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	hasher    pkgcrypto.Hasher
}

// sessionClaims are the JWT claims of an access token.
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter, hasher pkgcrypto.Hasher,
) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim, hasher: hasher}
}

// NormalizeEmail trims and lower-cases an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a new user record with a per-user salt.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (model.AuthUser, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return model.AuthUser{}, fmt.Errorf("%w: bad email", errs.ErrInvalidArgument)
	}
	if len(password) < MinPasswordLen {
		return model.AuthUser{}, fmt.Errorf("%w: password shorter than %d", errs.ErrInvalidArgument, MinPasswordLen)
	}

	uid, err := uuid.NewV7()
	if err != nil {
		return model.AuthUser{}, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return model.AuthUser{}, err
	}
	u := &model.User{
		ID:      uid,
		Email:   email,
		PwdHash: s.hasher.Hash(password, salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.AuthUser{}, err
	}
	return model.AuthUser{ID: uid.String(), Email: email}, nil
}

// SignInWithPassword authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignInWithPassword(ctx context.Context, email, password, ip string) (model.Session, error) {
	email = NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Session{}, err
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, err
	}
	if err != nil || !s.hasher.Verify(password, u.Salt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Session{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.issueAccessToken(u)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{
		AccessToken: access,
		ExpiresAt:   exp,
		User:        model.AuthUser{ID: u.ID.String(), Email: u.Email},
	}, nil
}

// Authenticate verifies an HS256 token and that its subject still exists.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (model.AuthUser, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.AuthUser{}, errs.ErrUnauthorized
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.AuthUser{}, errs.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.AuthUser{}, errs.ErrUnauthorized
		}
		return model.AuthUser{}, err
	}
	return model.AuthUser{ID: u.ID.String(), Email: u.Email}, nil
}

// issueAccessToken creates a signed HS256 JWT for the given user.
func (s *AuthServiceImpl) issueAccessToken(u *model.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := sessionClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
