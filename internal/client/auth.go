package client

import (
	"context"
	"net/http"
)

// Register creates an account. The new user is not logged in.
func (c *Client) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	_, err := c.call(ctx, call{method: http.MethodPost, path: "/auth/register", body: in, anonymous: true}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login exchanges credentials for a token pair. identifier is an email or a
// username. The tokens are returned, not stored.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	body := map[string]string{"email": identifier, "password": password}
	var out AuthResult
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/auth/login", body: body, anonymous: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades a refresh token for a new pair
func (c *Client) Refresh(ctx context.Context, refresh string) (*AuthResult, error) {
	result, err := c.exchange(ctx, refresh)
	if err != nil {
		c.notify(err)
		return nil, err
	}
	return result, nil
}

// Logout revokes the refresh token on the server
func (c *Client) Logout(ctx context.Context, refresh string) error {
	body := map[string]string{"refresh": refresh}
	_, err := c.call(ctx, call{method: http.MethodPost, path: "/auth/logout", body: body, anonymous: true}, nil)
	return err
}

// ForgotPassword asks for a reset link. The reset token is only returned by
// servers configured to echo it.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out struct {
		ResetToken string `json:"reset_token"`
	}
	body := map[string]string{"email": email}
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/auth/forgot-password", body: body, anonymous: true}, &out); err != nil {
		return "", err
	}
	return out.ResetToken, nil
}

// ResetPassword sets a new password with a reset token
func (c *Client) ResetPassword(ctx context.Context, in *PasswordReset) error {
	_, err := c.call(ctx, call{method: http.MethodPost, path: "/auth/reset-password", body: in, anonymous: true}, nil)
	return err
}

// Me returns the logged-in user with portfolio figures
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/users/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the fields set in in
func (c *Client) UpdateProfile(ctx context.Context, in *ProfileUpdate) (*User, error) {
	var out User
	if _, err := c.call(ctx, call{method: http.MethodPut, path: "/users/me", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, in *PasswordChange) error {
	_, err := c.call(ctx, call{method: http.MethodPut, path: "/users/me/password", body: in}, nil)
	return err
}

func (c *Client) Referrals(ctx context.Context) (*ReferralSummary, error) {
	var out ReferralSummary
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/users/me/referrals"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
