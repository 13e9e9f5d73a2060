package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAccessToken(AccessSubject{UserID: 7, Username: "ana", Role: "admin", Status: "active"}, "s3cret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAccessToken(tok, "s3cret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.Role != "admin" || claims.Status != "active" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, _ := GenerateAccessToken(AccessSubject{UserID: 1}, "one", time.Minute)
	if _, err := ValidateAccessToken(tok, "two"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	tok, _ := GenerateAccessToken(AccessSubject{UserID: 1}, "s", -time.Minute)
	if _, err := ValidateAccessToken(tok, "s"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshTokenCarriesID(t *testing.T) {
	tok, err := GenerateRefreshToken(3, "abc-123", "r", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateRefreshToken(tok, "r")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.TokenID != "abc-123" || claims.UserID != 3 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
