package application

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour, fixedNow)
	user := User{ID: "user-1", Name: "Ana Gómez"}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principal, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if principal.UserID != "user-1" || principal.Name != "Ana Gómez" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	later := NewTokenIssuer("secret", time.Hour, func() time.Time {
		return fixedNow().Add(2 * time.Hour)
	})
	if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other := NewTokenIssuer("another-secret", time.Hour, fixedNow)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_RejectsUnexpectedSigningMethod(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(fixedNow().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	issuer := NewTokenIssuer("secret", time.Hour, fixedNow)
	if _, err := issuer.Verify(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_RejectsMissingSubject(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(User{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
