package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tikalinvest/internal/client"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/validation"

	"github.com/rs/zerolog"
)

// ErrNotLoggedIn is returned by operations that need a session
var ErrNotLoggedIn = errors.New("not logged in")

var errIncompleteLogin = errors.New("login response carried no user or token")

// AuthStore is the logged-in state shared by every CLI page
type AuthStore struct {
	api   *client.Client
	store *FileStore
	log   zerolog.Logger

	// serializes Login, Logout and RefreshUser
	mu sync.Mutex
}

// NewAuthStore wires api to store. api should have been created with store
// as its TokenStore so refreshed tokens land in the same file.
func NewAuthStore(api *client.Client, store *FileStore) *AuthStore {
	return &AuthStore{
		api:   api,
		store: store,
		log:   logger.Component("session"),
	}
}

// Client returns the API client bound to this session
func (a *AuthStore) Client() *client.Client {
	return a.api
}

// Login authenticates and saves the tokens and the user
func (a *AuthStore) Login(ctx context.Context, identifier, password string) (*client.User, error) {
	if identifier == "" || password == "" {
		return nil, errors.New("email or username and password are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	if result.User == nil || result.Tokens.Access == "" {
		return nil, errIncompleteLogin
	}
	if err := a.store.SetSession(result.Tokens.Access, result.Tokens.Refresh, result.User); err != nil {
		return nil, err
	}

	a.log.Debug().Str("username", result.User.Username).Msg("logged in")
	return result.User, nil
}

// Register validates the form and creates the account. The caller stays
// logged out until the account is approved and they log in.
func (a *AuthStore) Register(ctx context.Context, in *client.RegisterInput) (*client.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return a.api.Register(ctx, in)
}

// Logout revokes the refresh token when possible and always clears the
// local session
func (a *AuthStore) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, refresh := a.store.Tokens(); refresh != "" {
		if err := a.api.Logout(ctx, refresh); err != nil {
			a.log.Debug().Err(err).Msg("server logout failed")
		}
	}
	return a.store.Clear()
}

// RefreshUser re-reads the user from the API. On failure the cached user is
// dropped.
func (a *AuthStore) RefreshUser(ctx context.Context) (*client.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if access, _ := a.store.Tokens(); access == "" {
		return nil, ErrNotLoggedIn
	}

	user, err := a.api.Me(ctx)
	if err != nil {
		if clearErr := a.store.SetUser(nil); clearErr != nil {
			return nil, errors.Join(err, clearErr)
		}
		return nil, err
	}
	if err := a.store.SetUser(user); err != nil {
		return nil, fmt.Errorf("cache user: %w", err)
	}
	return user, nil
}

// SetUser replaces the cached user
func (a *AuthStore) SetUser(user *client.User) error {
	return a.store.SetUser(user)
}

// User is the cached user, or nil when logged out
func (a *AuthStore) User() *client.User {
	return a.store.User()
}

// IsAuthenticated reports whether a user and an access token are held
func (a *AuthStore) IsAuthenticated() bool {
	access, _ := a.store.Tokens()
	return access != "" && a.store.User() != nil
}

// RequireUser returns the cached user or ErrNotLoggedIn
func (a *AuthStore) RequireUser() (*client.User, error) {
	if !a.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return a.store.User(), nil
}
