package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("super-secret")

func newTestService() *TokenService {
	return NewTokenService(testSecret, time.Hour)
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := newTestService()
	now := time.Now()

	tok, err := s.Issue("alice", now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := s.Verify(tok, now)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "alice")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := newTestService()
	now := time.Now()

	tok, err := s.Issue("alice", now, time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = s.Verify(tok, now.Add(time.Minute+time.Second))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_DefaultTTL(t *testing.T) {
	t.Parallel()

	s := newTestService() // default TTL is one hour
	now := time.Now()

	tok, err := s.Issue("alice", now, 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := s.Verify(tok, now.Add(59*time.Minute)); err != nil {
		t.Fatalf("token expired before its default TTL: %v", err)
	}
	if _, err := s.Verify(tok, now.Add(61*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after default TTL, got %v", err)
	}
}

func TestVerify_NotYetValid(t *testing.T) {
	t.Parallel()

	s := newTestService()
	now := time.Now()

	tok, err := s.Issue("alice", now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = s.Verify(tok, now.Add(-time.Minute))
	if !errors.Is(err, ErrTokenNotYetValid) {
		t.Fatalf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	s := newTestService()
	now := time.Now()

	tok, err := s.Issue("alice", now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = s.Verify(tampered, now)
	if !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := NewTokenService([]byte("right-secret"), time.Hour).Issue("alice", now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenService([]byte("wrong-secret"), time.Hour).Verify(tok, now)
	if !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	s := newTestService()

	_, err := s.Verify("not.a.jwt", time.Now())
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

// A token declaring any algorithm other than the pinned one must be rejected
// even when it is signed with the right secret.
func TestVerify_AlgorithmPinned(t *testing.T) {
	t.Parallel()

	now := time.Now()
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"sub": "alice",
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := foreign.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = newTestService().Verify(signed, now)
	if !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature for HS384 token, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	now := time.Now()
	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := anonymous.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = newTestService().Verify(signed, now)
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for missing sub, got %v", err)
	}
}
