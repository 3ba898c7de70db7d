package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	JwtSecret = []byte("unit-test-secret")

	token, exp, err := GenerateToken("user-1", "a@example.com", "Ada", "Client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) > time.Hour || time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry out of range: %v", exp)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "a@example.com" || claims.FullName != "Ada" || claims.Role != "Client" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	JwtSecret = []byte("unit-test-secret")

	token, _, err := GenerateToken("user-1", "a@example.com", "Ada", "Client", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	JwtSecret = []byte("unit-test-secret")
	token, _, err := GenerateToken("user-1", "a@example.com", "Ada", "Client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	JwtSecret = []byte("another-secret")
	defer func() { JwtSecret = []byte("unit-test-secret") }()

	if _, err := ParseToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}
