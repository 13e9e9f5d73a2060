package services

import (
	"context"
	"errors"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/fees"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// mapNotFound turns gorm's not-found into the given domain error
func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// payReferralBonus credits the referrer of userID once. It must run inside a
// database transaction; it is a no-op when the user was not referred or the
// bonus was already paid.
func payReferralBonus(ctx context.Context, tx *repositories.Repositories, userID uint, bonus decimal.Decimal) error {
	user, err := tx.Users.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if user.ReferredByID == nil || user.ReferralBonusPaid || !bonus.IsPositive() {
		return nil
	}

	referrer, err := tx.Users.GetByIDForUpdate(ctx, *user.ReferredByID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	bonus = fees.Round(bonus)
	referrer.Balance = referrer.Balance.Add(bonus)
	if err := tx.Users.Update(ctx, referrer); err != nil {
		return err
	}

	user.ReferralBonusPaid = true
	if err := tx.Users.Update(ctx, user); err != nil {
		return err
	}

	return tx.Transactions.Create(ctx, &models.Transaction{
		UserID:       referrer.ID,
		Type:         string(domain.TxReferralBonus),
		TotalAmount:  bonus,
		BalanceAfter: referrer.Balance,
		Status:       string(domain.TxCompleted),
		Note:         "referral: " + user.Username,
	})
}
