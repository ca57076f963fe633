// package auth owns the client-side session lifecycle: login, registration,
// logout, the passive mount-time session check, and profile mutations.
//
// The session moves Uninitialized → Checking → {Authenticated, Anonymous},
// with Authenticated ⇄ Anonymous transitions driven by login and logout. A
// real mutex serializes explicit login/register calls against the passive
// check, so neither path can clobber the other's state.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scribeworks/scribe/internal/api"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/scribeworks/scribe/internal/tokens"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateChecking
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is a point-in-time snapshot of the session state.
type Session struct {
	User    *User
	State   State
	Loading bool
	// Err holds the last user-facing failure message. Cleared on the next
	// successful operation.
	Err string
}

// Options configures a Manager.
type Options struct {
	Client *api.Client
	Logger *log.Logger

	// RetryDelay is the pause before the single post-login profile-fetch
	// retry. Defaults to 500ms; tests shorten it.
	RetryDelay time.Duration
}

// Manager owns the current-user state and every auth operation against the
// backend.
type Manager struct {
	client     *api.Client
	logger     *log.Logger
	retryDelay time.Duration

	// initMu serializes login/register against the passive CheckAuth. Login
	// waits for an in-flight check; CheckAuth refuses to run (no-op) while a
	// login holds the lock.
	initMu sync.Mutex

	// mu guards the session fields below.
	mu      sync.Mutex
	state   State
	user    *User
	loading bool
	lastErr string
}

// NewManager creates a session manager on top of the given API client.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}

	return &Manager{
		client:     opts.Client,
		logger:     opts.Logger,
		retryDelay: opts.RetryDelay,
		state:      StateUninitialized,
	}
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{User: m.user, State: m.state, Loading: m.loading, Err: m.lastErr}
}

// CurrentUser returns the loaded user, or nil when anonymous (or when the
// profile fetch soft-failed after login).
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// RegisterParams is the payload for account creation.
type RegisterParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type credentialsResponse struct {
	User    *User  `json:"user,omitempty"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login authenticates with email and password and loads the user profile.
//
// Stale tokens are cleared before the attempt so the login request can never
// carry an expired bearer header. The call itself is skip-auth: a 401 from
// the login endpoint means bad credentials, not an expired session.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	return m.authenticate(ctx, m.client.AuthRoot()+"/login/", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and seeds the session from its response.
func (m *Manager) Register(ctx context.Context, params RegisterParams) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	return m.authenticate(ctx, m.client.AuthRoot()+"/create_user/", params)
}

// authenticate runs the shared login/register flow: reset tokens, post the
// credentials, store the returned pair, then load the profile.
func (m *Manager) authenticate(ctx context.Context, endpoint string, body any) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.client.Tokens().Clear(); err != nil {
		m.logger.Warn("failed to clear stale tokens", "error", err)
	}

	var resp credentialsResponse
	if err := m.client.Post(ctx, endpoint, body, &resp, api.SkipAuth()); err != nil {
		m.fail(userMessage(err))
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if resp.Access == "" {
		m.fail("authentication failed: no credentials in response")
		return fmt.Errorf("%w: response missing tokens", shared.ErrAuthFailed)
	}

	pair := tokens.TokenPair{Access: resp.Access, Refresh: resp.Refresh}
	if err := m.client.Tokens().Save(pair); err != nil {
		m.fail("failed to store credentials")
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if resp.User != nil {
		m.setUser(resp.User)
		return nil
	}

	m.loadUser(ctx, true)
	return nil
}

// Logout tells the backend to revoke the refresh token, then unconditionally
// clears local state. Backend failures are logged, never surfaced: the local
// session ends either way.
func (m *Manager) Logout(ctx context.Context) {
	if pair, ok := m.client.Tokens().Pair(); ok && pair.Refresh != "" {
		body := map[string]string{"refresh": pair.Refresh}
		if err := m.client.Post(ctx, m.client.AuthRoot()+"/logout/", body, nil, api.NoRetry()); err != nil {
			m.logger.Warn("logout request failed, clearing local session anyway", "error", err)
		}
	}

	if err := m.client.Tokens().Clear(); err != nil {
		m.logger.Error("failed to clear token store", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.state = StateAnonymous
	m.lastErr = ""
}

// checkAuthResponse is the whoami payload from the passive session check.
type checkAuthResponse struct {
	Auth string `json:"auth"`
	User *User  `json:"user,omitempty"`
}

// CheckAuth is the passive, startup-time session reconciliation.
//
// Any failure — network, 401, malformed body — quietly resolves to
// Anonymous; a visitor is not an error. The call opts out of the 401-retry
// policy so an expired token here never triggers a refresh storm on startup.
// Re-entrant calls, and calls racing an explicit login, are no-ops.
func (m *Manager) CheckAuth(ctx context.Context) {
	if !m.initMu.TryLock() {
		m.logger.Debug("auth check skipped: initialization already in progress")
		return
	}
	defer m.initMu.Unlock()

	m.mu.Lock()
	m.state = StateChecking
	m.mu.Unlock()

	var resp checkAuthResponse
	err := m.client.Post(ctx, m.client.AuthRoot()+"/check_auth/", nil, &resp, api.NoRetry())
	if err != nil || resp.Auth == "Visitor" || resp.User == nil {
		if err != nil {
			m.logger.Debug("auth check resolved to visitor", "error", err)
		}
		m.mu.Lock()
		m.user = nil
		m.state = StateAnonymous
		m.mu.Unlock()
		return
	}

	m.setUser(resp.User)
}

// RefreshUser re-fetches the profile outside the post-login path. A failure
// clears the user; a session-expiry failure has already cleared the tokens.
func (m *Manager) RefreshUser(ctx context.Context) error {
	return m.loadUser(ctx, false)
}

// loadUser fetches the current-user profile.
//
// After a fresh login the backend may lag behind its own token issuance, so a
// transient failure is retried once after a short delay. If it still fails
// the session is kept: login already succeeded, and tearing down valid
// tokens over a profile-fetch glitch would strand the user. The user stays
// nil until a later fetch succeeds. Expiry failures are the exception — by
// then the client has cleared the tokens and the session is over.
func (m *Manager) loadUser(ctx context.Context, postLogin bool) error {
	var user User
	err := m.client.Get(ctx, m.client.AuthRoot()+"/get_user/", &user)

	if err != nil && postLogin && !api.IsSessionExpired(err) {
		m.logger.Debug("profile fetch failed after login, retrying", "error", err)
		select {
		case <-time.After(m.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = m.client.Get(ctx, m.client.AuthRoot()+"/get_user/", &user)
	}

	if err != nil {
		if api.IsSessionExpired(err) {
			m.mu.Lock()
			m.user = nil
			m.state = StateAnonymous
			m.mu.Unlock()
			return err
		}

		if postLogin {
			// Soft-fail: tokens stay, user stays nil.
			m.logger.Warn("profile fetch failed after login, continuing without profile", "error", err)
			m.mu.Lock()
			m.user = nil
			m.state = StateAuthenticated
			m.mu.Unlock()
			return nil
		}

		m.mu.Lock()
		m.user = nil
		m.mu.Unlock()
		return err
	}

	m.setUser(&user)
	return nil
}

func (m *Manager) setUser(user *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	m.state = StateAuthenticated
	m.lastErr = ""
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = loading
}

func (m *Manager) fail(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.state = StateAnonymous
	m.lastErr = message
}

// userMessage renders an error for display, preferring the backend's own
// message when one exists.
func userMessage(err error) string {
	if apiErr, ok := err.(*api.Error); ok {
		return apiErr.Message
	}
	return err.Error()
}
