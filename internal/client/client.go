// Package client talks to the TikalInvest REST API. It keeps the session
// alive by refreshing the access token once on a 401 and reports every
// failure to a Notifier.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the API root used when none is configured
const DefaultBaseURL = "http://localhost:8000/api/v1"

var errNoRefreshToken = errors.New("no refresh token")

// errExpiredElsewhere means another caller already gave up on the session
var errExpiredElsewhere = errors.New("session cleared by a concurrent request")

// TokenStore holds the access and refresh tokens between calls
type TokenStore interface {
	Tokens() (access, refresh string)
	SetTokens(access, refresh string) error
	Clear() error
}

// Notifier receives the user-facing message of every failed call
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Option configures a Client
type Option func(*Client)

// WithNotifier sets where failure messages go
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithSessionExpired sets a hook run after the tokens have been cleared
// because the session could not be refreshed
func WithSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// Client is safe for concurrent use
type Client struct {
	http      *resty.Client
	tokens    TokenStore
	notifier  Notifier
	onExpired func()

	// serializes refreshes so concurrent 401s share one
	refreshMu sync.Mutex
}

// New creates a client for baseURL. A nil store keeps tokens in memory.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tokens == nil {
		tokens = &MemoryStore{}
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second),
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the store the client reads and rotates tokens in
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// envelope is the success body every endpoint answers with
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
}

type call struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	// anonymous calls never carry a token and never trigger a refresh
	anonymous bool
}

// call runs r, decodes data into out and notifies on failure
func (c *Client) call(ctx context.Context, r call, out interface{}) (*Meta, error) {
	meta, err := c.roundTrip(ctx, r, out)
	if err != nil {
		c.notify(err)
	}
	return meta, err
}

func (c *Client) roundTrip(ctx context.Context, r call, out interface{}) (*Meta, error) {
	resp, used, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized && used != "" {
		if err := c.refreshAfter(ctx, used); err != nil {
			if errors.Is(err, errExpiredElsewhere) {
				return nil, ErrSessionExpired
			}
			return nil, c.expire()
		}

		resp, _, err = c.send(ctx, r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return nil, c.expire()
		}
	}

	return decode(resp, out)
}

// send issues one request and reports the access token it carried
func (c *Client) send(ctx context.Context, r call) (*resty.Response, string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetResult(&envelope{}).
		SetError(&errorBody{})

	var access string
	if !r.anonymous {
		access, _ = c.tokens.Tokens()
		if access != "" {
			req.SetAuthToken(access)
		}
	}
	if r.query != nil {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}

	resp, err := req.Execute(r.method, r.path)
	if err != nil {
		return nil, access, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	return resp, access, nil
}

func decode(resp *resty.Response, out interface{}) (*Meta, error) {
	if resp.IsError() {
		body, _ := resp.Error().(*errorBody)
		return nil, newAPIError(resp.StatusCode(), body)
	}

	env, _ := resp.Result().(*envelope)
	if env == nil {
		return nil, nil
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", resp.Request.URL, err)
		}
	}
	return env.Meta, nil
}

// refreshAfter rotates the token pair unless a concurrent caller already
// replaced stale
func (c *Client) refreshAfter(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.tokens.Tokens()
	if access != "" && access != stale {
		return nil
	}
	if access == "" && refresh == "" {
		return errExpiredElsewhere
	}
	if refresh == "" {
		return errNoRefreshToken
	}

	result, err := c.exchange(ctx, refresh)
	if err != nil {
		return err
	}
	return c.tokens.SetTokens(result.Tokens.Access, result.Tokens.Refresh)
}

func (c *Client) exchange(ctx context.Context, refresh string) (*AuthResult, error) {
	resp, _, err := c.send(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		body:      map[string]string{"refresh": refresh},
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	var result AuthResult
	if _, err := decode(resp, &result); err != nil {
		return nil, err
	}
	if result.Tokens.Access == "" {
		return nil, errors.New("refresh returned no access token")
	}
	return &result, nil
}

// expire drops the session and runs the hook
func (c *Client) expire() error {
	// a store that cannot be cleared still leaves the session unusable
	_ = c.tokens.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
	return ErrSessionExpired
}

// notify skips cancelled calls; the caller that cancelled reports its own
// failure
func (c *Client) notify(err error) {
	if c.notifier == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.notifier.Notify(Message(err))
}

// MemoryStore keeps tokens for the life of the process
type MemoryStore struct {
	mu              sync.RWMutex
	access, refresh string
}

func (s *MemoryStore) Tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

func (s *MemoryStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.SetTokens("", "")
}
