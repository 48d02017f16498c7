package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)

	token, err := ts.IssueSessionToken("user-1", "employer")
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	claims, err := ts.VerifySessionToken(token)
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "employer" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	ts := NewTokenService("test-secret", -time.Minute)

	token, err := ts.IssueSessionToken("user-1", "applicant")
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	if _, err := ts.VerifySessionToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSessionTokenTampered(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)

	token, err := ts.IssueSessionToken("user-1", "applicant")
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	sig := token[strings.LastIndexByte(token, '.')+1:]
	flipped := "A"
	if strings.HasPrefix(sig, "A") {
		flipped = "B"
	}
	tampered := token[:len(token)-len(sig)] + flipped + sig[1:]

	if _, err := ts.VerifySessionToken(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.IssueSessionToken("user-1", "applicant")
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	if _, err := verifier.VerifySessionToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionTokenGarbage(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	if _, err := ts.VerifySessionToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)

	plain, hashed, err := ts.IssueResetToken()
	if err != nil {
		t.Fatalf("IssueResetToken: %v", err)
	}
	if plain == "" || hashed == plain {
		t.Fatalf("plain=%q hashed=%q", plain, hashed)
	}
	if HashResetToken(plain) != hashed {
		t.Error("hash does not match issued plaintext")
	}

	expiry := time.Now().Add(30 * time.Minute)
	if !ts.VerifyResetToken(plain, hashed, expiry) {
		t.Error("valid token rejected")
	}
	if ts.VerifyResetToken("wrong", hashed, expiry) {
		t.Error("wrong plaintext accepted")
	}
	if ts.VerifyResetToken(plain, hashed, time.Now().Add(-time.Second)) {
		t.Error("expired token accepted")
	}
	if ts.VerifyResetToken("", "", expiry) {
		t.Error("empty token accepted")
	}
}

func TestResetTokensUnique(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)

	a, _, err := ts.IssueResetToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := ts.IssueResetToken()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two issued tokens are identical")
	}
}
