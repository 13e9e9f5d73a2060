package services

import (
	"context"
	"errors"
	"testing"

	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"
)

func newAuthService(t *testing.T) (*AuthService, *repositories.Repositories) {
	t.Helper()
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	return NewAuthService(repos, testdb.Config()), repos
}

func register(t *testing.T, s *AuthService, username, referral string) uint {
	t.Helper()
	user, err := s.Register(context.Background(), &RegisterInput{
		Email:            username + "@example.com",
		Username:         username,
		Password:         "password1",
		PasswordConfirm:  "password1",
		ReferralCodeUsed: referral,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	return user.ID
}

func TestRegister_CreatesPendingUserWithReferralCode(t *testing.T) {
	s, repos := newAuthService(t)

	id := register(t, s, "maria", "")

	user, err := repos.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Status != string(domain.StatusPending) {
		t.Errorf("Expected status pending, got %s", user.Status)
	}
	if len(user.ReferralCode) != 8 {
		t.Errorf("Expected an 8 character referral code, got %q", user.ReferralCode)
	}
	if !user.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", user.Balance)
	}
}

func TestRegister_AutoApprove(t *testing.T) {
	s, repos := newAuthService(t)
	s.cfg.Auth.AutoApproveUsers = true

	id := register(t, s, "ana", "")

	user, _ := repos.Users.GetByID(context.Background(), id)
	if user.Status != string(domain.StatusActive) {
		t.Errorf("Expected status active, got %s", user.Status)
	}
}

func TestRegister_RejectsDuplicatesAndUnknownReferral(t *testing.T) {
	s, _ := newAuthService(t)
	register(t, s, "pedro", "")

	_, err := s.Register(context.Background(), &RegisterInput{
		Email: "other@example.com", Username: "pedro", Password: "password1", PasswordConfirm: "password1",
	})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists for username, got %v", err)
	}

	_, err = s.Register(context.Background(), &RegisterInput{
		Email: "PEDRO@example.com", Username: "pedro2", Password: "password1", PasswordConfirm: "password1",
	})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists for email, got %v", err)
	}

	_, err = s.Register(context.Background(), &RegisterInput{
		Email: "new@example.com", Username: "newbie", Password: "password1", PasswordConfirm: "password1",
		ReferralCodeUsed: "NOPE0000",
	})
	if !errors.Is(err, domain.ErrInvalidReferralCode) {
		t.Errorf("Expected ErrInvalidReferralCode, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	s, repos := newAuthService(t)
	ctx := context.Background()
	id := register(t, s, "lucia", "")

	// pending users may log in
	resp, err := s.Login(ctx, &LoginInput{Email: "lucia@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login by email failed: %v", err)
	}
	if resp.Tokens.Access == "" || resp.Tokens.Refresh == "" {
		t.Fatal("Expected a token pair")
	}
	if resp.User.ID != id {
		t.Errorf("Expected user %d, got %d", id, resp.User.ID)
	}

	if _, err := s.Login(ctx, &LoginInput{Username: "lucia", Password: "password1"}); err != nil {
		t.Errorf("Login by username failed: %v", err)
	}

	if _, err := s.Login(ctx, &LoginInput{Email: "lucia@example.com", Password: "wrong-pass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}

	user, _ := repos.Users.GetByID(ctx, id)
	user.Status = string(domain.StatusSuspended)
	if err := repos.Users.Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := s.Login(ctx, &LoginInput{Email: "lucia@example.com", Password: "password1"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Errorf("Expected ErrAccountDisabled, got %v", err)
	}
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	register(t, s, "jorge", "")

	login, err := s.Login(ctx, &LoginInput{Email: "jorge@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := s.Refresh(ctx, login.Tokens.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Tokens.Refresh == login.Tokens.Refresh {
		t.Fatal("Expected a new refresh token")
	}

	if _, err := s.Refresh(ctx, login.Tokens.Refresh); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("Expected ErrTokenRevoked for the old token, got %v", err)
	}

	// reuse of a revoked token ends every session
	if _, err := s.Refresh(ctx, refreshed.Tokens.Refresh); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Errorf("Expected the rotated token to be revoked after reuse, got %v", err)
	}

	if _, err := s.Refresh(ctx, "not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	register(t, s, "sofia", "")

	login, _ := s.Login(ctx, &LoginInput{Email: "sofia@example.com", Password: "password1"})
	if err := s.Logout(ctx, login.Tokens.Refresh); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Refresh(ctx, login.Tokens.Refresh); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Errorf("Expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	register(t, s, "diego", "")

	token, err := s.ForgotPassword(ctx, "unknown@example.com")
	if err != nil || token != "" {
		t.Fatalf("Expected silent no-op for unknown email, got %q, %v", token, err)
	}

	token, err = s.ForgotPassword(ctx, "diego@example.com")
	if err != nil || token == "" {
		t.Fatalf("ForgotPassword: %q, %v", token, err)
	}

	input := &ResetPasswordInput{Token: token, Password: "newpassword", PasswordConfirm: "newpassword"}
	if err := s.ResetPassword(ctx, input); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := s.ResetPassword(ctx, input); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("Expected a used token to be rejected, got %v", err)
	}

	if _, err := s.Login(ctx, &LoginInput{Email: "diego@example.com", Password: "password1"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected old password to fail, got %v", err)
	}
	if _, err := s.Login(ctx, &LoginInput{Email: "diego@example.com", Password: "newpassword"}); err != nil {
		t.Errorf("Login with new password failed: %v", err)
	}
}

func TestRegister_LosingARaceIsAConflict(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	s := NewAuthService(repos, testdb.Config())

	// another sign-up takes the username right after the availability check
	afterFirstRead(t, db, "users",
		`INSERT INTO users (email, username, password, role, status, balance, referral_code, created_at, updated_at)
		 VALUES ('first@example.com', 'racer', 'x', 'user', 'pending', 0, 'RACE0001', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)

	_, err := s.Register(context.Background(), &RegisterInput{
		Email: "second@example.com", Username: "racer", Password: "password1", PasswordConfirm: "password1",
	})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("Expected ErrUserAlreadyExists, got %v", err)
	}

	exists, err := repos.Users.ExistsByEmail(context.Background(), "second@example.com")
	if err != nil {
		t.Fatalf("ExistsByEmail: %v", err)
	}
	if exists {
		t.Error("Expected the losing sign-up not to be stored")
	}
}
