package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity carried by both access and refresh tokens.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsFor builds the token claims for an identity.
func ClaimsFor(id *Identity) Claims {
	return Claims{UserID: id.ID, Email: id.Email, Role: id.Role}
}

// VerifyErrorKind tags why a token could not be trusted.
type VerifyErrorKind int

const (
	KindMalformed VerifyErrorKind = iota + 1
	KindInvalidSignature
	KindExpired
)

func (k VerifyErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// VerifyError is returned by token verification. Callers facing clients
// treat every kind the same; Kind exists for logs and tests.
type VerifyError struct {
	Kind VerifyErrorKind
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrTokenInvalid, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTokenInvalid, e.Kind, e.Err)
}

// Unwrap exposes both ErrTokenInvalid and the underlying parser error.
func (e *VerifyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTokenInvalid}
	}
	return []error{ErrTokenInvalid, e.Err}
}

// KindOf returns the verification failure kind of err, or 0 if err is not
// a *VerifyError.
func KindOf(err error) VerifyErrorKind {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return 0
}

// TokenConfig is one signing configuration.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenService issues and verifies HS256 tokens. Access and refresh tokens
// use independent secrets, so neither validates under the other's key.
//
// The service holds no mutable state and is safe for concurrent use.
type TokenService struct {
	access  TokenConfig
	refresh TokenConfig
	now     func() time.Time
}

// NewTokenService validates both configurations and returns a service.
func NewTokenService(access, refresh TokenConfig) (*TokenService, error) {
	if access.Secret == "" || refresh.Secret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if access.Secret == refresh.Secret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &TokenService{access: access, refresh: refresh, now: time.Now}, nil
}

// IssueAccess signs a short-lived access token.
func (s *TokenService) IssueAccess(c Claims) (string, error) {
	return s.issue(c, s.access)
}

// IssueRefresh signs a long-lived refresh token.
func (s *TokenService) IssueRefresh(c Claims) (string, error) {
	return s.issue(c, s.refresh)
}

// VerifyAccess checks an access token.
func (s *TokenService) VerifyAccess(token string) (*Claims, error) {
	return s.verify(token, s.access.Secret)
}

// VerifyRefresh checks a refresh token.
func (s *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return s.verify(token, s.refresh.Secret)
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.access.TTL
}

func (s *TokenService) issue(c Claims, cfg TokenConfig) (string, error) {
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(c.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, &VerifyError{Kind: classify(err), Err: err}
	}
	if !token.Valid {
		return nil, &VerifyError{Kind: KindMalformed}
	}

	if claims.UserID <= 0 {
		return nil, &VerifyError{Kind: KindMalformed, Err: errors.New("missing id claim")}
	}
	if claims.Role == "" {
		return nil, &VerifyError{Kind: KindMalformed, Err: errors.New("missing role claim")}
	}

	return claims, nil
}

// classify maps jwt parser errors onto the three verification kinds.
func classify(err error) VerifyErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return KindExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return KindInvalidSignature
	default:
		return KindMalformed
	}
}
