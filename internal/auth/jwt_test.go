package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "alice", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", claims.Username)
	}
	if claims.IsAdmin {
		t.Error("expected non-admin claims")
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-one", 1, "alice", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("secret-two", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := "test-secret-key"

	claims := Claims{
		UserID:   1,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := ValidateToken(secret, signed); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestUniqueJTIs(t *testing.T) {
	secret := "test-secret-key"

	t1, _ := GenerateToken(secret, 1, "alice", false)
	t2, _ := GenerateToken(secret, 1, "alice", false)

	c1, err := ValidateToken(secret, t1)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	c2, err := ValidateToken(secret, t2)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if c1.ID == c2.ID {
		t.Error("expected distinct JTIs for separate tokens")
	}
}
