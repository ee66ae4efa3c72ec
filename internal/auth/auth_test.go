package auth

import (
	"errors"
	"testing"
	"time"

	"mathemania-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthenticator(t *testing.T, password string) *Authenticator {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := NewAuthenticator(hash, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func TestLoginAndVerify(t *testing.T) {
	a := newTestAuthenticator(t, "pi=3.14159")

	token, expires, err := a.Login("pi=3.14159")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected expiry in the future, got %s", expires)
	}
	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	a := newTestAuthenticator(t, "right")
	if _, _, err := a.Login("wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	noHash, err := NewAuthenticator("", "secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := noHash.Login(""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without a configured hash, got %v", err)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	a := newTestAuthenticator(t, "pw")
	token, _, err := a.Login("pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other, _ := NewAuthenticator("", "other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected signature mismatch to be rejected, got %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	if _, err := a.Verify("not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected garbage to be rejected, got %v", err)
	}

	guest, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "guest"}).SignedString([]byte("test-secret"))
	if _, err := newTestAuthenticator(t, "pw").Verify(guest); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected non-admin role to be rejected, got %v", err)
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator("hash", "", time.Hour); err == nil {
		t.Fatalf("expected error without secret")
	}
}
