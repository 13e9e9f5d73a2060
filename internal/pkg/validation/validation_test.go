package validation

import (
	"errors"
	"strings"
	"testing"
)

type signup struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func TestStructValid(t *testing.T) {
	err := Struct(signup{
		Email:           "ana@example.com",
		Username:        "ana",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	})
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{
		Email:           "not-an-email",
		Username:        "an",
		Password:        "short",
		PasswordConfirm: "other",
	})

	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(verrs), verrs)
	}

	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field] = fe.Message
	}
	if !strings.Contains(fields["password"], "at least 8") {
		t.Fatalf("unexpected password message: %q", fields["password"])
	}
	if _, ok := fields["password_confirm"]; !ok {
		t.Fatalf("expected password_confirm error, got %v", fields)
	}
	if fields["email"] != "email must be a valid email" {
		t.Fatalf("unexpected email message: %q", fields["email"])
	}
}

func TestPassword(t *testing.T) {
	if err := Password("1234567", "1234567"); err == nil {
		t.Fatal("expected error for 7 characters")
	}
	if err := Password("12345678", "12345679"); err == nil {
		t.Fatal("expected mismatch error")
	}
	if err := Password("12345678", "12345678"); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestDateRange(t *testing.T) {
	if _, _, err := DateRange("2024-02-01", "2024-01-01"); !errors.Is(err, ErrDateRange) {
		t.Fatalf("expected ErrDateRange, got %v", err)
	}
	from, to, err := DateRange("2024-01-01", "2024-01-01")
	if err != nil {
		t.Fatalf("same day should be valid, got %v", err)
	}
	if !from.Equal(to) {
		t.Fatalf("expected equal dates")
	}
	if _, _, err := DateRange("01/01/2024", "2024-01-02"); err == nil {
		t.Fatal("expected parse error")
	}
}
