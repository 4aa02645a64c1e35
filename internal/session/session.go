// Package session owns the authenticated/unauthenticated duality of the
// application: the current user, login/logout lifecycle, and the proactive
// token-refresh timer.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ambioctl/internal/api"
)

// ErrInvalidCredentials is returned by Login when the server rejects the
// email/password combination.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountInactive is returned by Login when the account exists but has
// been deactivated.
var ErrAccountInactive = errors.New("account is inactive")

// ErrResetTokenInvalid is returned by ResetPassword when the reset token has
// expired or was never valid.
var ErrResetTokenInvalid = errors.New("password reset link is invalid or has expired")

// proactiveRefreshMargin is how long before access-token expiry the proactive
// refresh fires. Tokens living shorter than this margin are not proactively
// refreshed; the reactive 401 path covers them.
const proactiveRefreshMargin = 60 * time.Second

// proactiveRefreshTimeout bounds the timer-driven refresh call, which runs
// without a caller waiting on it.
const proactiveRefreshTimeout = 30 * time.Second

// User is the denormalized profile of the authenticated operator.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	UserType  string `json:"userType"`
	CompanyID string `json:"companyId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// loginResponse is the wire shape of POST /api/auth/login.
type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// Controller manages the session lifecycle against the Ambio API.
//
// Invariant: the cached user is non-nil iff an access token is currently
// believed to be held. Best-effort only; the server stays authoritative,
// and the request client's refresh path reconciles the difference.
type Controller struct {
	client *api.Client
	tokens *api.TokenStore
	logger *slog.Logger

	mu           sync.Mutex
	user         *User
	refreshTimer *time.Timer
	onExpired    func()
}

// ControllerOption configures the session controller.
type ControllerOption func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a session controller on top of the API client.
// It hooks the refresh coordinator's session-expired signal so a terminal
// refresh failure anywhere in the process drops the cached user.
func NewController(client *api.Client, tokens *api.TokenStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		client: client,
		tokens: tokens,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	client.Refresher().SetSessionExpiredHandler(c.handleSessionExpired)
	return c
}

// SetSessionExpiredHandler registers an application hook fired after local
// session state has been dropped because a refresh failed terminally.
func (c *Controller) SetSessionExpiredHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// CurrentUser returns a copy of the cached user, or nil when no session is
// established.
func (c *Controller) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Login authenticates with email and password. On success both tokens are
// persisted, the user profile is cached, and a proactive refresh is
// scheduled from the token lifetime.
func (c *Controller) Login(ctx context.Context, email, password string) (*User, error) {
	var resp loginResponse
	err := c.client.PostPublic(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		switch api.StatusOf(err) {
		case http.StatusUnauthorized:
			return nil, ErrInvalidCredentials
		case http.StatusForbidden:
			return nil, ErrAccountInactive
		}
		return nil, err
	}

	if err := c.tokens.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, err
	}

	c.mu.Lock()
	user := resp.User
	c.user = &user
	c.scheduleRefreshLocked(resp.ExpiresIn)
	c.mu.Unlock()

	c.logger.Info("logged in",
		"user_id", resp.User.ID,
		"user_type", resp.User.UserType,
	)
	return c.CurrentUser(), nil
}

// Logout ends the session. The server-side revocation call is best-effort:
// its failure is logged and otherwise ignored, because local state must be
// cleared no matter what the network does.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	c.cancelRefreshLocked()
	c.user = nil
	c.mu.Unlock()

	if refreshToken, ok := c.tokens.RefreshToken(); ok {
		err := c.client.Post(ctx, "/api/auth/logout", map[string]string{
			"refreshToken": refreshToken,
		}, nil)
		if err != nil {
			c.logger.Debug("best-effort logout call failed", "error", err.Error())
		}
	}

	if err := c.tokens.Clear(); err != nil {
		c.logger.Debug("failed to clear token file", "error", err.Error())
	}
	c.logger.Info("logged out")
}

// CheckAuth reconciles stored tokens with the server at startup. With no
// stored access token the process is simply unauthenticated. Otherwise the
// current user is fetched; the request client's refresh-and-retry covers an
// expired access token transparently. Every failure path ends in a clean
// unauthenticated state; CheckAuth never returns an error for an expired
// or rejected session.
func (c *Controller) CheckAuth(ctx context.Context) *User {
	if _, ok := c.tokens.AccessToken(); !ok {
		return nil
	}

	var user User
	if err := c.client.Get(ctx, "/api/auth/me", &user); err != nil {
		c.logger.Debug("stored session is not usable", "error", err.Error())
		_ = c.tokens.Clear()
		c.mu.Lock()
		c.user = nil
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()
	return c.CurrentUser()
}

// Close cancels the proactive refresh timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRefreshLocked()
}

// refreshDelay computes when the proactive refresh should fire for a token
// lifetime in seconds. The boolean is false when the lifetime is within the
// safety margin and no timer should be armed.
func refreshDelay(expiresIn int) (time.Duration, bool) {
	delay := time.Duration(expiresIn)*time.Second - proactiveRefreshMargin
	if delay <= 0 {
		return 0, false
	}
	return delay, true
}

// scheduleRefreshLocked arms the one-shot proactive refresh timer. At most
// one timer is armed at a time; arming cancels any previous timer.
// REQUIRES: c.mu must be held by the caller.
func (c *Controller) scheduleRefreshLocked(expiresIn int) {
	c.cancelRefreshLocked()

	delay, ok := refreshDelay(expiresIn)
	if !ok {
		c.logger.Debug("token lifetime within refresh margin, relying on reactive refresh",
			"expires_in", expiresIn,
		)
		return
	}

	c.refreshTimer = time.AfterFunc(delay, c.proactiveRefresh)
	c.logger.Debug("proactive refresh scheduled", "fire_in", delay.String())
}

// cancelRefreshLocked stops any armed proactive refresh timer.
// REQUIRES: c.mu must be held by the caller.
func (c *Controller) cancelRefreshLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// proactiveRefresh fires from the timer. It goes through the same refresh
// coordinator as the reactive 401 path, so it can never race a concurrent
// reactive refresh against a single-use refresh token. Failure is silent
// beyond the log: the coordinator has already cleared tokens and signalled
// session expiry, and the operator is redirected on their next action.
func (c *Controller) proactiveRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), proactiveRefreshTimeout)
	defer cancel()

	result, err := c.client.Refresher().Refresh(ctx)
	if err != nil {
		c.logger.Debug("proactive refresh failed", "error", err.Error())
		return
	}

	c.mu.Lock()
	c.scheduleRefreshLocked(result.ExpiresIn)
	c.mu.Unlock()
}

// handleSessionExpired drops the cached user after a terminal refresh
// failure and forwards the signal to the application hook.
func (c *Controller) handleSessionExpired() {
	c.mu.Lock()
	c.cancelRefreshLocked()
	c.user = nil
	handler := c.onExpired
	c.mu.Unlock()

	if handler != nil {
		handler()
	}
}

// ProfileUpdate carries the editable subset of the user profile. Nil fields
// are left unchanged server-side.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile edits the current user's profile and refreshes the cached
// copy from the server's response.
func (c *Controller) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if err := c.client.Put(ctx, "/api/auth/me", update, &user); err != nil {
		return nil, err
	}
	c.cacheUser(user)
	return c.CurrentUser(), nil
}

// UploadAvatar uploads a new avatar image as a multipart request with the
// field name "avatar".
func (c *Controller) UploadAvatar(ctx context.Context, filename string, content io.Reader) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.client.Upload(ctx, "/api/auth/me/avatar", "avatar", filename, content, &resp); err != nil {
		return nil, err
	}
	c.cacheUser(resp.User)
	return c.CurrentUser(), nil
}

// DeleteAvatar removes the current avatar.
func (c *Controller) DeleteAvatar(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.client.Delete(ctx, "/api/auth/me/avatar", &resp); err != nil {
		return nil, err
	}
	c.cacheUser(resp.User)
	return c.CurrentUser(), nil
}

// ChangePassword changes the current user's password.
func (c *Controller) ChangePassword(ctx context.Context, current, updated string) error {
	return c.client.Post(ctx, "/api/auth/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     updated,
	}, nil)
}

// Preferences fetches the current user's preference map.
func (c *Controller) Preferences(ctx context.Context) (map[string]any, error) {
	var prefs map[string]any
	if err := c.client.Get(ctx, "/api/auth/me/preferences", &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SetPreferences replaces the current user's preference map.
func (c *Controller) SetPreferences(ctx context.Context, prefs map[string]any) error {
	return c.client.Put(ctx, "/api/auth/me/preferences", map[string]any{
		"preferences": prefs,
	}, nil)
}

// ForgotPassword requests a password-reset email. The endpoint responds
// identically whether or not the address exists, so there is nothing to
// distinguish client-side.
func (c *Controller) ForgotPassword(ctx context.Context, email string) error {
	return c.client.PostPublic(ctx, "/api/auth/forgot-password", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword completes a password reset with the emailed token.
func (c *Controller) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := c.client.PostPublic(ctx, "/api/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	}, nil)
	if err != nil {
		switch api.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return ErrResetTokenInvalid
		}
		return err
	}
	return nil
}

// cacheUser replaces the cached user under the controller mutex.
func (c *Controller) cacheUser(user User) {
	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()
}
