package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	Cost = bcrypt.MinCost
	defer func() { Cost = DefaultCost }()

	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !Verify("correct horse", hash) {
		t.Fatal("expected password to verify")
	}
	if Verify("wrong horse", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("expected stable hash")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(HashToken("abc")))
	}
}

func TestNewResetTokenUnique(t *testing.T) {
	a, b := NewResetToken(), NewResetToken()
	if a == b || len(a) != 64 {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("1234567") {
		t.Fatal("7 characters should be rejected")
	}
	if !ValidatePassword("12345678") {
		t.Fatal("8 characters should be accepted")
	}
}
