package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/pagination"
	"tikalinvest/internal/pkg/password"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserService handles profile and account management business logic
type UserService struct {
	repos *repositories.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(repos *repositories.Repositories, cfg *config.Config) *UserService {
	return &UserService{
		repos: repos,
		cfg:   cfg,
		log:   logger.Component("users"),
	}
}

// UpdateProfileInput represents update profile input (for self).
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	FullName *string `json:"full_name" validate:"omitempty,max=150"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Country  *string `json:"country" validate:"omitempty,max=60"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,password"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// ListUsersInput represents the admin user listing query
type ListUsersInput struct {
	Page   int
	Limit  int
	Status string
	Role   string
	Search string
}

// Referral is one user who signed up with the caller's code
type Referral struct {
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	BonusPaid bool      `json:"bonus_paid"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ReferralSummary is the caller's referral code and its results
type ReferralSummary struct {
	ReferralCode  string          `json:"referral_code"`
	TotalReferred int             `json:"total_referred"`
	BonusEarned   decimal.Decimal `json:"bonus_earned"`
	Referrals     []Referral      `json:"referrals"`
}

// GetProfile returns the user with portfolio value and total profit/loss
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	positions, err := s.repos.Positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	summary := summarize(user.Balance, valuePositions(positions))
	resp.PortfolioValue = &summary.MarketValue
	resp.TotalProfitLoss = &summary.ProfitLoss
	return resp, nil
}

// UpdateProfile updates the caller's own profile. Only the given fields are
// written.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	fields := make(map[string]interface{})
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			exists, err := s.repos.Users.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, domain.ErrUserAlreadyExists
			}
			user.Email = email
			user.EmailVerified = false
			fields["email"] = email
			fields["email_verified"] = false
		}
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
		fields["full_name"] = user.FullName
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
		fields["phone"] = user.Phone
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
		fields["address"] = user.Address
	}
	if input.Country != nil {
		user.Country = strings.TrimSpace(*input.Country)
		fields["country"] = user.Country
	}

	if len(fields) == 0 {
		return user.ToResponse(), nil
	}
	if err := s.repos.Users.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	return user.ToResponse(), nil
}

// ChangePassword changes the password and revokes every refresh token
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err, domain.ErrUserNotFound)
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.repos.Users.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed}); err != nil {
		return mapNotFound(err, domain.ErrUserNotFound)
	}
	if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	s.log.Info().Uint("user_id", userID).Msg("password changed")
	return nil
}

// Referrals lists the users referred by the caller
func (s *UserService) Referrals(ctx context.Context, userID uint) (*ReferralSummary, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	referred, err := s.repos.Users.ListReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &ReferralSummary{
		ReferralCode:  user.ReferralCode,
		TotalReferred: len(referred),
		BonusEarned:   decimal.Zero,
		Referrals:     make([]Referral, 0, len(referred)),
	}
	for _, r := range referred {
		summary.Referrals = append(summary.Referrals, Referral{
			Username:  r.Username,
			Status:    r.Status,
			BonusPaid: r.ReferralBonusPaid,
			JoinedAt:  r.CreatedAt,
		})
		if r.ReferralBonusPaid {
			summary.BonusEarned = summary.BonusEarned.Add(s.cfg.Fees.ReferralBonus)
		}
	}
	return summary, nil
}

// ============================================================
// Admin
// ============================================================

// ListUsers lists users with pagination (admin)
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) ([]*models.UserResponse, *pagination.Meta, error) {
	params := pagination.New(input.Page, input.Limit)

	users, total, err := s.repos.Users.List(ctx, repositories.UserFilter{
		Status: input.Status,
		Role:   input.Role,
		Search: strings.TrimSpace(input.Search),
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, pagination.GetMeta(params, total), nil
}

// GetUser returns any user's profile (admin)
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetProfile(ctx, userID)
}

// Approve activates a pending user and pays their referrer's bonus
func (s *UserService) Approve(ctx context.Context, userID uint) (*models.UserResponse, error) {
	var out *models.UserResponse
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		user, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, domain.ErrUserNotFound)
		}
		if user.Status != string(domain.StatusPending) {
			return domain.ErrInvalidStatusChange
		}

		user.Status = string(domain.StatusActive)
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}
		if err := payReferralBonus(ctx, tx, user.ID, s.cfg.Fees.ReferralBonus); err != nil {
			return err
		}

		out = user.ToResponse()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", userID).Msg("user approved")
	return out, nil
}

// Suspend blocks a user from logging in and ends their sessions
func (s *UserService) Suspend(ctx context.Context, actorID, userID uint) (*models.UserResponse, error) {
	if actorID == userID {
		return nil, domain.ErrInvalidStatusChange
	}

	user, err := s.setStatus(ctx, userID, domain.StatusSuspended)
	if err != nil {
		return nil, err
	}
	if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, userID); err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", userID).Uint("by", actorID).Msg("user suspended")
	return user, nil
}

// Activate re-enables a suspended or inactive user. Pending users go through
// Approve instead so the referral bonus is paid.
func (s *UserService) Activate(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	if user.Status == string(domain.StatusPending) {
		return s.Approve(ctx, userID)
	}
	return s.setStatus(ctx, userID, domain.StatusActive)
}

// setStatus moves a user to status under a row lock and writes only the
// status column
func (s *UserService) setStatus(ctx context.Context, userID uint, status domain.UserStatus) (*models.UserResponse, error) {
	var out *models.UserResponse
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		user, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, domain.ErrUserNotFound)
		}
		if user.Status == string(status) {
			return domain.ErrInvalidStatusChange
		}

		user.Status = string(status)
		if err := tx.Users.UpdateFields(ctx, userID, map[string]interface{}{"status": user.Status}); err != nil {
			return err
		}
		out = user.ToResponse()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
