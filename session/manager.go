package session

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/fleetadmin/authcore/claims"
	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/internal/metrics"
)

// TopicTerminated is published on the event bus whenever a session ends,
// carrying the termination reason.
const TopicTerminated = "authcore.session.terminated"

// Termination reasons. Expired terminations are distinguishable at the
// login route so it can show a different message than a voluntary logout.
const (
	ReasonLogout  = "logout"
	ReasonExpired = "expired"
)

// DefaultExpiryThreshold is the "expiring soon" window.
const DefaultExpiryThreshold = 5 * time.Minute

const expiredQuery = "?reason=" + ReasonExpired

// Config controls session behavior.
type Config struct {
	// LoginRoute receives every post-termination redirect.
	LoginRoute string

	// ExpiryThreshold bounds IsExpiringSoon. Zero selects
	// [DefaultExpiryThreshold].
	ExpiryThreshold time.Duration
}

// Manager composes the credential store and the claims decoder into
// session queries and termination.
type Manager struct {
	store   *credential.Store
	nav     Navigator
	bus     evbus.Bus
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

// NewManager creates a [Manager] and installs the back-navigation
// interceptor. bus and m may be nil; nav must not be.
func NewManager(store *credential.Store, nav Navigator, bus evbus.Bus, m *metrics.Metrics, cfg Config) *Manager {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/login"
	}
	if cfg.ExpiryThreshold <= 0 {
		cfg.ExpiryThreshold = DefaultExpiryThreshold
	}

	mgr := &Manager{
		store:   store,
		nav:     nav,
		bus:     bus,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}

	// The lock outlives any single logout: it must intercept arbitrary
	// future back-navigation attempts while unauthenticated, so it is
	// installed once per process load, not per termination.
	nav.InstallBackInterceptor(func() (string, bool) {
		if mgr.IsLoggedIn(context.Background()) {
			return "", false
		}
		return mgr.cfg.LoginRoute, true
	})

	return mgr
}

// currentClaims returns the decoded claims of the stored token, or nil when
// no token is stored or it cannot be decoded. All failures degrade to
// "no session".
func (m *Manager) currentClaims(ctx context.Context) *claims.Claims {
	token, err := m.store.Token(ctx)
	if err != nil || token == "" {
		return nil
	}
	c, err := claims.Decode(token)
	if err != nil {
		m.metrics.Inc(metrics.DecodeFailure)
		return nil
	}
	return c
}

// IsLoggedIn reports whether a token is present and unexpired. Recomputed
// on every call.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	c := m.currentClaims(ctx)
	return c != nil && !c.ExpiredAt(m.now())
}

// IsExpired reports whether the current session is unusable: no decodable
// claims, or claims past expiry.
func (m *Manager) IsExpired(ctx context.Context) bool {
	c := m.currentClaims(ctx)
	return c == nil || c.ExpiredAt(m.now())
}

// HasCredential reports whether any token is stored, expired or not. The
// guard uses it to tell a stale session from no session.
func (m *Manager) HasCredential(ctx context.Context) bool {
	token, err := m.store.Token(ctx)
	return err == nil && token != ""
}

// SecondsUntilExpiry returns the remaining session lifetime in whole
// seconds, never negative.
func (m *Manager) SecondsUntilExpiry(ctx context.Context) int64 {
	c := m.currentClaims(ctx)
	if c == nil {
		return 0
	}
	return int64(c.TTL(m.now()) / time.Second)
}

// IsExpiringSoon reports whether a live session will expire within the
// configured threshold.
func (m *Manager) IsExpiringSoon(ctx context.Context) bool {
	return m.IsExpiringSoonWithin(ctx, m.cfg.ExpiryThreshold)
}

// IsExpiringSoonWithin is [Manager.IsExpiringSoon] with a per-call window.
// d <= 0 selects the configured threshold.
func (m *Manager) IsExpiringSoonWithin(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = m.cfg.ExpiryThreshold
	}
	c := m.currentClaims(ctx)
	if c == nil {
		return false
	}
	ttl := c.TTL(m.now())
	return ttl > 0 && ttl <= d
}

// Terminate ends the session voluntarily: the credential store is cleared
// and the user is redirected to the login route. Idempotent and safe to
// call when already logged out.
func (m *Manager) Terminate(ctx context.Context) error {
	m.metrics.Inc(metrics.SessionTerminated)
	return m.end(ctx, ReasonLogout, m.cfg.LoginRoute)
}

// TerminateExpired ends the session because expiry was detected. The
// redirect target carries an expired indicator the login route can
// distinguish from a voluntary logout.
func (m *Manager) TerminateExpired(ctx context.Context) error {
	m.metrics.Inc(metrics.SessionExpired)
	return m.end(ctx, ReasonExpired, m.cfg.LoginRoute+expiredQuery)
}

func (m *Manager) end(ctx context.Context, reason, target string) error {
	err := m.store.Clear(ctx)

	if m.bus != nil {
		m.bus.Publish(TopicTerminated, reason)
	}
	if redirectErr := m.nav.Redirect(ctx, target); redirectErr != nil && err == nil {
		err = redirectErr
	}
	return err
}
