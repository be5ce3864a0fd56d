package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

const (
	// Issuer tags every token this service signs
	Issuer = "react-management-backend"
	// SessionTTL is the fixed lifetime of a session token
	SessionTTL = 24 * time.Hour
	// DefaultResetTTL is the default lifetime of a password-reset token
	DefaultResetTTL = time.Hour

	purposePasswordReset = "password_reset"
)

var (
	// ErrTokenExpired is returned when a token's signature is valid but
	// its expiry has passed
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned when a token is malformed, tampered
	// with, or otherwise unusable
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload embedded in signed tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// TokenService issues and verifies signed session and password-reset
// tokens. The signing secret is immutable after construction; tokens
// are the only session state the server holds.
type TokenService struct {
	secret     []byte
	users      store.UserStore
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service. The secret must be non-empty;
// callers treat an empty secret as a fatal startup misconfiguration.
func NewTokenService(secret []byte, users store.UserStore) *TokenService {
	return &TokenService{
		secret:     secret,
		users:      users,
		sessionTTL: SessionTTL,
		resetTTL:   DefaultResetTTL,
		now:        time.Now,
	}
}

// SetTTLs overrides the default session and reset token lifetimes.
// Non-positive values leave the corresponding default in place.
func (s *TokenService) SetTTLs(session, reset time.Duration) {
	if session > 0 {
		s.sessionTTL = session
	}
	if reset > 0 {
		s.resetTTL = reset
	}
}

// Issue signs a session token for the user with the configured lifetime
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.secret, nil
}

// Verify checks a session token's signature and expiry and returns its
// claims. Expired tokens yield ErrTokenExpired; everything else that
// fails yields ErrTokenInvalid, including reset tokens presented where
// a session token is expected.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.Purpose != "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh exchanges a session token for a fresh one. The old token's
// expiry is deliberately not enforced so an already-expired session can
// still be renewed, but the signature must verify and the referenced
// user must still exist and be active.
func (s *TokenService) Refresh(ctx context.Context, oldToken string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(oldToken, claims, s.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil || claims.Purpose != "" {
		return "", ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if !user.IsActive() {
		return "", ErrTokenInvalid
	}
	return s.Issue(user)
}

// IssueResetToken signs a single-purpose password-reset token. A zero
// ttl uses the configured reset lifetime.
func (s *TokenService) IssueResetToken(user *models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.resetTTL
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  user.ID,
		Purpose: purposePasswordReset,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return token, nil
}

// VerifyResetToken checks a password-reset token and resolves its user.
// Session tokens are rejected here by the purpose claim, and a token
// whose user no longer exists is invalid.
func (s *TokenService) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.Purpose != purposePasswordReset {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// ExtractFromHeader pulls the token out of an Authorization header
// value. Only the exact "Bearer <token>" shape is accepted; anything
// else yields the empty string.
func ExtractFromHeader(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
