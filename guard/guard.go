package guard

import (
	"context"

	"github.com/fleetadmin/authcore/internal/metrics"
	"github.com/fleetadmin/authcore/permission"
	"github.com/fleetadmin/authcore/session"
)

// Redirect reasons carried on denials.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonExpired         = session.ReasonExpired
	ReasonAuthenticated   = "authenticated"
	ReasonForbidden       = "forbidden"
)

// Decision is the outcome of one admission check: either allow, or
// redirect to Target with a Reason.
type Decision struct {
	Allow  bool
	Target string
	Reason string

	// Err carries a termination failure observed while denying, a failed
	// credential clear foremost. The denial stands either way; callers
	// that audit should record it.
	Err error
}

// Allowed is the admitting decision.
func Allowed() Decision {
	return Decision{Allow: true}
}

// RedirectTo denies and names the route to go to instead.
func RedirectTo(target, reason string) Decision {
	return Decision{Target: target, Reason: reason}
}

// Config names the two routes decisions redirect to.
type Config struct {
	LoginRoute   string
	LandingRoute string
}

// Guard gates navigation using the session manager and permission deriver.
type Guard struct {
	sessions *session.Manager
	perms    *permission.Deriver
	metrics  *metrics.Metrics
	cfg      Config
}

// New creates a [Guard]. m may be nil.
func New(sessions *session.Manager, perms *permission.Deriver, m *metrics.Metrics, cfg Config) *Guard {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/login"
	}
	if cfg.LandingRoute == "" {
		cfg.LandingRoute = "/dashboard"
	}
	return &Guard{
		sessions: sessions,
		perms:    perms,
		metrics:  m,
		cfg:      cfg,
	}
}

// Admit decides whether navigation to route proceeds. A session found
// invalid here is terminated immediately so the stale credential never
// survives the redirect.
func (g *Guard) Admit(ctx context.Context, route string) Decision {
	if g.sessions.IsLoggedIn(ctx) {
		g.metrics.Inc(metrics.GuardAllowed)
		return Allowed()
	}

	reason := ReasonUnauthenticated
	var termErr error
	if g.sessions.HasCredential(ctx) {
		// A stored but expired (or undecodable) credential: terminate with
		// the expired indicator so the login view can say why.
		reason = ReasonExpired
		termErr = g.sessions.TerminateExpired(ctx)
	} else {
		termErr = g.sessions.Terminate(ctx)
	}

	g.metrics.Inc(metrics.GuardRedirected)
	d := RedirectTo(g.cfg.LoginRoute, reason)
	d.Err = termErr
	return d
}

// RequireAnonymous gates routes reserved for logged-out users, the login
// screen foremost: an authenticated user is sent to the landing route
// instead, covering both direct and back-navigation attempts.
func (g *Guard) RequireAnonymous(ctx context.Context, route string) Decision {
	if g.sessions.IsLoggedIn(ctx) {
		g.metrics.Inc(metrics.GuardRedirected)
		return RedirectTo(g.cfg.LandingRoute, ReasonAuthenticated)
	}
	g.metrics.Inc(metrics.GuardAllowed)
	return Allowed()
}

// RequirePermission admits only authenticated sessions holding at least one
// of perms. With no perms given it behaves exactly like Admit.
func (g *Guard) RequirePermission(ctx context.Context, route string, perms ...string) Decision {
	if d := g.Admit(ctx, route); !d.Allow {
		return d
	}
	if len(perms) > 0 && !g.perms.HasAnyPermission(perms) {
		g.metrics.Inc(metrics.GuardRedirected)
		return RedirectTo(g.cfg.LandingRoute, ReasonForbidden)
	}
	return Allowed()
}
