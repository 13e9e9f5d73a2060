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
	"tikalinvest/internal/pkg/jwt"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	repos *repositories.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(repos *repositories.Repositories, cfg *config.Config) *AuthService {
	return &AuthService{
		repos: repos,
		cfg:   cfg,
		log:   logger.Component("auth"),
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email            string `json:"email" validate:"required,email,max=100"`
	Username         string `json:"username" validate:"required,min=3,max=50"`
	Password         string `json:"password" validate:"required,password"`
	PasswordConfirm  string `json:"password_confirm" validate:"required,eqfield=Password"`
	FullName         string `json:"full_name" validate:"max=150"`
	Phone            string `json:"phone" validate:"max=30"`
	Country          string `json:"country" validate:"max=60"`
	ReferralCodeUsed string `json:"referral_code_used" validate:"max=16"`
}

// LoginInput represents login input. Email may hold a username.
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// Identifier is the email or username the user logs in with
func (in *LoginInput) Identifier() string {
	if id := strings.TrimSpace(in.Email); id != "" {
		return id
	}
	return strings.TrimSpace(in.Username)
}

// ResetPasswordInput represents the reset-password form
type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User   *models.UserResponse `json:"user"`
	Tokens TokenPair            `json:"tokens"`
}

// Register creates a pending account (active when auto approval is on).
// It does not log the user in.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	exists, err := s.repos.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	exists, err = s.repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	var referredBy *uint
	if code := strings.TrimSpace(input.ReferralCodeUsed); code != "" {
		referrer, err := s.repos.Users.GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrInvalidReferralCode
			}
			return nil, err
		}
		referredBy = &referrer.ID
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.newReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	status := domain.StatusPending
	if s.cfg.Auth.AutoApproveUsers {
		status = domain.StatusActive
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		Password:     hashed,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		Country:      strings.TrimSpace(input.Country),
		Role:         string(domain.RoleUser),
		Status:       string(status),
		Balance:      decimal.Zero,
		ReferralCode: code,
		ReferredByID: referredBy,
	}

	// the unique indexes settle sign-ups racing past the checks above
	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		// Auto approved accounts pay the referral bonus straight away.
		if status == domain.StatusActive && referredBy != nil {
			return payReferralBonus(ctx, tx, user.ID, s.cfg.Fees.ReferralBonus)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Str("status", user.Status).Msg("user registered")
	return user.ToResponse(), nil
}

// Login authenticates a user by email or username
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	identifier := input.Identifier()
	if identifier == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repos.Users.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	if !domain.UserStatus(user.Status).CanLogin() {
		return nil, domain.ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repos.Users.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	s.log.Info().Str("username", user.Username).Msg("user logged in")

	return &AuthResponse{User: user.ToResponse(), Tokens: *tokens}, nil
}

// Refresh rotates a refresh token and issues a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	stored, err := s.repos.RefreshTokens.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if stored.IsRevoked() {
		// A revoked token coming back means it leaked; end every session.
		s.log.Warn().Uint("user_id", stored.UserID).Msg("revoked refresh token reused")
		if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, stored.UserID); err != nil {
			return nil, err
		}
		return nil, domain.ErrTokenRevoked
	}
	if stored.IsExpired() {
		return nil, domain.ErrTokenExpired
	}
	if stored.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.repos.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !domain.UserStatus(user.Status).CanLogin() {
		return nil, domain.ErrAccountDisabled
	}

	if err := s.repos.RefreshTokens.Revoke(ctx, stored.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("username", user.Username).Msg("token refreshed")

	return &AuthResponse{User: user.ToResponse(), Tokens: *tokens}, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repos.RefreshTokens.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	s.log.Info().Uint("user_id", userID).Msg("all sessions revoked")
	return nil
}

// ForgotPassword creates a single-use reset token. It returns an empty token
// and no error for unknown emails so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	token := password.NewResetToken()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: password.HashToken(token),
		ExpiresAt: time.Now().Add(s.cfg.Auth.ResetTokenTTL),
	}
	if err := s.repos.PasswordResets.Create(ctx, reset); err != nil {
		return "", err
	}

	s.log.Info().Uint("user_id", user.ID).Msg("password reset requested")
	return token, nil
}

// ResetPassword sets a new password from a reset token and ends every
// session of the user
func (s *AuthService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	reset, err := s.repos.PasswordResets.GetByTokenHash(ctx, password.HashToken(input.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}
	if !reset.Usable() {
		return domain.ErrTokenExpired
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return err
	}

	return s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		if err := tx.PasswordResets.MarkUsed(ctx, reset.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTokenExpired
			}
			return err
		}

		user, err := tx.Users.GetByIDForUpdate(ctx, reset.UserID)
		if err != nil {
			return err
		}
		if err := tx.Users.UpdateFields(ctx, user.ID, map[string]interface{}{"password": hashed}); err != nil {
			return err
		}

		return tx.RefreshTokens.RevokeAllByUserID(ctx, user.ID)
	})
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// issueTokens signs a new pair and stores the refresh token hash
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := jwt.GenerateAccessToken(jwt.AccessSubject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Status:   user.Status,
	}, s.cfg.JWT.Secret, s.cfg.JWT.AccessTTL())
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.JWT.RefreshTTL()
	refresh, err := jwt.GenerateRefreshToken(user.ID, uuid.NewString(), s.cfg.JWT.RefreshSecret, ttl)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refresh),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repos.RefreshTokens.Create(ctx, token); err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// newReferralCode returns an unused 8 character upper-case code
func (s *AuthService) newReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		exists, err := s.repos.Users.ExistsByReferralCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a referral code")
}
