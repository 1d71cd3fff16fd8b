package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is pinned: a token declaring anything else is rejected before its
// claims are looked at.
const Algorithm = "HS256"

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenNotYetValid      = errors.New("token not yet valid")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

// Claims is the signed claim set carried by an access token. Subject holds
// the username.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies bearer tokens. The secret and default TTL
// are bound once at construction; there is no other state and no revocation,
// so an issued token stays valid until its expiry.
type TokenService struct {
	auth       *jwtauth.JWTAuth
	secret     []byte
	defaultTTL time.Duration
}

func NewTokenService(secret []byte, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		auth:       jwtauth.New(Algorithm, secret, nil),
		secret:     secret,
		defaultTTL: defaultTTL,
	}
}

// Issue signs a claim set {sub, iat, nbf, exp} for the given subject.
// A non-positive ttl falls back to the service default.
func (s *TokenService) Issue(subject string, now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	claims := map[string]interface{}{
		"sub": subject,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return tokenString, nil
}

// Verify checks the signature first, then nbf, then exp, evaluated at the
// supplied time. Claims are never trusted before the signature passes.
func (s *TokenService) Verify(tokenString string, now time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{Algorithm}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenMalformed)
	}
	return claims, nil
}

// JWTAuth exposes the underlying handle for transport-layer helpers
// (header extraction in the auth middleware).
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.auth
}
