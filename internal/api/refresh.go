package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// refreshEndpoint is the path of the token refresh endpoint.
const refreshEndpoint = "/api/auth/refresh"

// RefreshResult is the outcome of a successful token refresh, shared by all
// callers that were waiting on the same in-flight refresh.
type RefreshResult struct {
	// AccessToken is the newly issued access token. It has already been
	// persisted to the token store when the caller observes it.
	AccessToken string

	// ExpiresIn is the access token lifetime in seconds, used to re-arm
	// the proactive refresh timer.
	ExpiresIn int
}

// RefreshCoordinator serializes token refresh attempts. A burst of
// concurrently-expiring requests produces exactly one call to the refresh
// endpoint; every waiter observes the same new token or the same failure.
//
// Refresh failure is terminal for the session: both tokens are cleared and
// the session-expired handler fires before the error reaches any waiter.
// Refresh tokens are single-use on the server side, so an uncoordinated
// second refresh call could invalidate an otherwise healthy session. The
// proactive timer path therefore goes through this coordinator too.
type RefreshCoordinator struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenStore
	logger     *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	onExpired func()
}

// newRefreshCoordinator creates a coordinator bound to the client's token
// store and transport.
func newRefreshCoordinator(baseURL string, httpClient *http.Client, tokens *TokenStore, logger *slog.Logger) *RefreshCoordinator {
	return &RefreshCoordinator{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// SetSessionExpiredHandler registers the hook invoked when a refresh fails
// terminally. The application uses it to drop the cached user and steer the
// operator back to login.
func (r *RefreshCoordinator) SetSessionExpiredHandler(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpired = fn
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers are collapsed into a single network call; all of them
// receive the same result.
func (r *RefreshCoordinator) Refresh(ctx context.Context) (RefreshResult, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.doRefresh(ctx)
	})
	if err != nil {
		return RefreshResult{}, err
	}
	if shared {
		r.logger.Debug("token refresh shared with concurrent caller")
	}
	return v.(RefreshResult), nil
}

// doRefresh performs the actual refresh call. Any failure (missing refresh
// token, transport error, or a rejection from the endpoint) abandons the
// session: tokens are cleared and the expired handler fires before the error
// propagates.
func (r *RefreshCoordinator) doRefresh(ctx context.Context) (RefreshResult, error) {
	refreshToken, ok := r.tokens.RefreshToken()
	if !ok {
		r.logger.Debug("no refresh token available, abandoning session")
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+refreshEndpoint, bytes.NewReader(payload))
	if err != nil {
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Debug("token refresh request failed", "error", err.Error())
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("refresh endpoint rejected token", "status", resp.StatusCode)
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	var rotated struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(body, &rotated); err != nil || rotated.AccessToken == "" {
		r.logger.Debug("refresh endpoint returned unusable response")
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	// An empty rotated.RefreshToken preserves the stored refresh token;
	// servers that rotate only the access token rely on this.
	if err := r.tokens.SetTokens(rotated.AccessToken, rotated.RefreshToken); err != nil {
		r.expireSession()
		return RefreshResult{}, ErrSessionExpired
	}

	r.logger.Debug("access token refreshed", "expires_in", rotated.ExpiresIn)
	return RefreshResult{
		AccessToken: rotated.AccessToken,
		ExpiresIn:   rotated.ExpiresIn,
	}, nil
}

// expireSession clears local session state and notifies the application.
// Runs inside the singleflight callback, so it fires at most once per failed
// refresh regardless of how many callers were waiting.
func (r *RefreshCoordinator) expireSession() {
	_ = r.tokens.Clear()

	r.mu.Lock()
	handler := r.onExpired
	r.mu.Unlock()

	if handler != nil {
		handler()
	}
}
