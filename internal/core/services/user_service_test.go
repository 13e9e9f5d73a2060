package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"

	"gorm.io/gorm"
)

func TestApprove_PaysReferralBonusOnce(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	auth := NewAuthService(repos, cfg)
	users := NewUserService(repos, cfg)
	ctx := context.Background()

	referrer := testdb.CreateTestUser(t, db, "referrer", domain.StatusActive, "0")
	newID := register(t, auth, "friend", referrer.ReferralCode)

	if _, err := users.Approve(ctx, newID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := users.Approve(ctx, newID); !errors.Is(err, domain.ErrInvalidStatusChange) {
		t.Errorf("Expected second approval to fail, got %v", err)
	}

	// suspend and re-activate must not pay again
	if _, err := users.Suspend(ctx, referrer.ID, newID); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if _, err := users.Activate(ctx, newID); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if got := testdb.Reload(t, db, referrer.ID).Balance; !got.Equal(dec("50")) {
		t.Errorf("Expected referrer balance 50, got %s", got)
	}

	var bonuses int64
	db.Model(&models.Transaction{}).Where("user_id = ? AND transaction_type = ?", referrer.ID, "referral_bonus").Count(&bonuses)
	if bonuses != 1 {
		t.Errorf("Expected exactly one bonus row, got %d", bonuses)
	}

	summary, err := users.Referrals(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Referrals: %v", err)
	}
	if summary.TotalReferred != 1 || !summary.BonusEarned.Equal(dec("50")) {
		t.Errorf("Unexpected referral summary: %+v", summary)
	}
}

func TestSuspend_Self(t *testing.T) {
	db := testdb.SetupTestDB(t)
	users := NewUserService(repositories.New(db), testdb.Config())
	admin := testdb.CreateTestAdmin(t, db)

	if _, err := users.Suspend(context.Background(), admin.ID, admin.ID); !errors.Is(err, domain.ErrInvalidStatusChange) {
		t.Errorf("Expected ErrInvalidStatusChange, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := testdb.SetupTestDB(t)
	users := NewUserService(repositories.New(db), testdb.Config())
	user := testdb.CreateTestUser(t, db, "changer", domain.StatusActive, "0")
	ctx := context.Background()

	err := users.ChangePassword(ctx, user.ID, &ChangePasswordInput{OldPassword: "wrong", NewPassword: "newpass12", NewPasswordConfirm: "newpass12"})
	if !errors.Is(err, domain.ErrOldPasswordWrong) {
		t.Errorf("Expected ErrOldPasswordWrong, got %v", err)
	}

	err = users.ChangePassword(ctx, user.ID, &ChangePasswordInput{OldPassword: testdb.Password, NewPassword: "newpass12", NewPasswordConfirm: "newpass12"})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
}

func TestGetProfile_ValuesPortfolio(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	users := NewUserService(repos, cfg)
	trades := NewTradeService(repos, cfg)
	ctx := context.Background()

	user := testdb.CreateTestUser(t, db, "holder", domain.StatusActive, "10000")
	stock := testdb.CreateTestStock(t, db, "AAPL", "100", 1000)
	if _, err := trades.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 10}); err != nil {
		t.Fatalf("buy: %v", err)
	}
	db.Model(&models.Stock{}).Where("id = ?", stock.ID).Update("current_price", dec("110"))

	profile, err := users.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.PortfolioValue == nil || !profile.PortfolioValue.Equal(dec("1100")) {
		t.Errorf("Expected portfolio value 1100, got %v", profile.PortfolioValue)
	}
	if profile.TotalProfitLoss == nil || !profile.TotalProfitLoss.Equal(dec("100")) {
		t.Errorf("Expected profit 100, got %v", profile.TotalProfitLoss)
	}
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	db := testdb.SetupTestDB(t)
	users := NewUserService(repositories.New(db), testdb.Config())
	a := testdb.CreateTestUser(t, db, "a", domain.StatusActive, "0")
	b := testdb.CreateTestUser(t, db, "b", domain.StatusActive, "0")

	_, err := users.UpdateProfile(context.Background(), a.ID, &UpdateProfileInput{Email: &b.Email})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists, got %v", err)
	}

	name := "Ana Gomez"
	resp, err := users.UpdateProfile(context.Background(), a.ID, &UpdateProfileInput{FullName: &name})
	if err != nil || resp.FullName != name {
		t.Errorf("Expected full name update, got %+v, %v", resp, err)
	}
}

// afterFirstRead runs stmt once, right after the next query on table and on
// the same connection, like a writer committing between a service's read and
// its write
func afterFirstRead(t *testing.T, db *gorm.DB, table, stmt string, args ...interface{}) {
	t.Helper()
	var armed atomic.Bool
	armed.Store(true)

	err := db.Callback().Query().After("gorm:query").Register("test:after_read_"+table, func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Table != table || !armed.CompareAndSwap(true, false) {
			return
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec(stmt, args...).Error; err != nil {
			t.Errorf("concurrent write failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

const depositWhileReading = "UPDATE users SET balance = balance + 100 WHERE id = ?"

func TestAccountWritesKeepConcurrentBalanceChange(t *testing.T) {
	name := "Ana Gomez"
	tests := []struct {
		name string
		run  func(ctx context.Context, auth *AuthService, users *UserService, admin, user *models.User) error
	}{
		{
			name: "login",
			run: func(ctx context.Context, auth *AuthService, _ *UserService, _, user *models.User) error {
				_, err := auth.Login(ctx, &LoginInput{Username: user.Username, Password: testdb.Password})
				return err
			},
		},
		{
			name: "update profile",
			run: func(ctx context.Context, _ *AuthService, users *UserService, _, user *models.User) error {
				_, err := users.UpdateProfile(ctx, user.ID, &UpdateProfileInput{FullName: &name})
				return err
			},
		},
		{
			name: "change password",
			run: func(ctx context.Context, _ *AuthService, users *UserService, _, user *models.User) error {
				return users.ChangePassword(ctx, user.ID, &ChangePasswordInput{
					OldPassword: testdb.Password, NewPassword: "newpass12", NewPasswordConfirm: "newpass12",
				})
			},
		},
		{
			name: "suspend",
			run: func(ctx context.Context, _ *AuthService, users *UserService, admin, user *models.User) error {
				_, err := users.Suspend(ctx, admin.ID, user.ID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testdb.SetupTestDB(t)
			repos := repositories.New(db)
			cfg := testdb.Config()
			auth := NewAuthService(repos, cfg)
			users := NewUserService(repos, cfg)
			admin := testdb.CreateTestAdmin(t, db)
			user := testdb.CreateTestUser(t, db, "racer", domain.StatusActive, "500")

			afterFirstRead(t, db, "users", depositWhileReading, user.ID)

			if err := tt.run(context.Background(), auth, users, admin, user); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("600")) {
				t.Errorf("Expected balance 600 after a concurrent deposit, got %s", got)
			}
		})
	}
}

func TestActivate_KeepsConcurrentBalanceChange(t *testing.T) {
	db := testdb.SetupTestDB(t)
	users := NewUserService(repositories.New(db), testdb.Config())
	user := testdb.CreateTestUser(t, db, "sleeper", domain.StatusSuspended, "500")

	afterFirstRead(t, db, "users", depositWhileReading, user.ID)

	resp, err := users.Activate(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if resp.Status != string(domain.StatusActive) {
		t.Errorf("Expected active, got %s", resp.Status)
	}
	if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("600")) {
		t.Errorf("Expected balance 600, got %s", got)
	}
}
