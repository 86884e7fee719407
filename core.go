package authcore

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/fleetadmin/authcore/claims"
	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/guard"
	internalaudit "github.com/fleetadmin/authcore/internal/audit"
	internalmetrics "github.com/fleetadmin/authcore/internal/metrics"
	"github.com/fleetadmin/authcore/menu"
	"github.com/fleetadmin/authcore/permission"
	"github.com/fleetadmin/authcore/session"
)

// Core is the composed session/authorization context. One instance is
// created at application start via [Builder.Build], injected into every
// consumer, and closed at shutdown. Methods are safe for concurrent use.
type Core struct {
	cfg         Config
	store       *credential.Store
	sessions    *session.Manager
	permissions *permission.Deriver
	menu        *menu.Service
	guard       *guard.Guard
	bus         evbus.Bus
	dispatcher  *internalaudit.Dispatcher
	metrics     *internalmetrics.Metrics
}

// onTerminated drops derived authorization state whenever a session ends.
func (c *Core) onTerminated(string) {
	c.permissions.Clear()
	c.menu.ClearAll()
}

/*
====================================
CREDENTIAL LIFECYCLE
====================================
*/

// Login stores the externally issued credential and derives permission and
// role state from it.
func (c *Core) Login(ctx context.Context, token, role, refreshToken string) error {
	if err := c.store.Save(ctx, token, role, refreshToken); err != nil {
		c.audit(ctx, EventLogin, false, err, "", "")
		return err
	}
	c.metrics.Inc(internalmetrics.CredentialSaved)
	c.permissions.Recompute(token)
	c.audit(ctx, EventLogin, true, nil, "", "")
	return nil
}

// Logout terminates the session voluntarily. Idempotent.
func (c *Core) Logout(ctx context.Context) error {
	uid, _ := c.userID(ctx) // captured before the store is cleared
	err := c.sessions.Terminate(ctx)
	c.auditAs(ctx, uid, EventLogout, err == nil, err, "", session.ReasonLogout)
	return err
}

// LogoutExpired terminates the session because expiry was detected, with
// the expired indicator on the redirect.
func (c *Core) LogoutExpired(ctx context.Context) error {
	uid, _ := c.userID(ctx)
	err := c.sessions.TerminateExpired(ctx)
	c.auditAs(ctx, uid, EventSessionExpired, err == nil, err, "", session.ReasonExpired)
	return err
}

// Token returns the current bearer token for outbound Authorization
// headers, or "" when none is stored.
func (c *Core) Token(ctx context.Context) (string, error) {
	return c.store.Token(ctx)
}

// SetRemember persists the remember-me flag.
func (c *Core) SetRemember(ctx context.Context, remember bool) error {
	return c.store.SetRemember(ctx, remember)
}

// Remember reports the remember-me flag.
func (c *Core) Remember(ctx context.Context) (bool, error) {
	return c.store.Remember(ctx)
}

/*
====================================
SESSION QUERIES
====================================
*/

// IsLoggedIn reports whether a valid, unexpired credential is stored.
func (c *Core) IsLoggedIn(ctx context.Context) bool {
	return c.sessions.IsLoggedIn(ctx)
}

// IsExpiringSoon reports whether the session will expire within the
// configured threshold.
func (c *Core) IsExpiringSoon(ctx context.Context) bool {
	return c.sessions.IsExpiringSoon(ctx)
}

// IsExpiringSoonWithin is [Core.IsExpiringSoon] with a per-call window.
func (c *Core) IsExpiringSoonWithin(ctx context.Context, d time.Duration) bool {
	return c.sessions.IsExpiringSoonWithin(ctx, d)
}

// SecondsUntilExpiry returns the remaining session lifetime in whole
// seconds, never negative.
func (c *Core) SecondsUntilExpiry(ctx context.Context) int64 {
	return c.sessions.SecondsUntilExpiry(ctx)
}

/*
====================================
PERMISSION QUERIES
====================================
*/

// HasPermission reports whether p is granted, with the privileged-role
// override.
func (c *Core) HasPermission(p string) bool {
	return c.permissions.HasPermission(p)
}

// HasAnyPermission reports whether at least one of list is granted. An
// empty list answers false.
func (c *Core) HasAnyPermission(list []string) bool {
	return c.permissions.HasAnyPermission(list)
}

// HasAllPermissions reports whether every entry of list is granted.
func (c *Core) HasAllPermissions(list []string) bool {
	return c.permissions.HasAllPermissions(list)
}

// HasRole reports plain role membership.
func (c *Core) HasRole(r string) bool {
	return c.permissions.HasRole(r)
}

// HasAnyRole reports whether at least one of list is held.
func (c *Core) HasAnyRole(list []string) bool {
	return c.permissions.HasAnyRole(list)
}

// Permissions returns a sorted copy of the derived sets.
func (c *Core) Permissions() permission.Snapshot {
	return c.permissions.Snapshot()
}

/*
====================================
MENU
====================================
*/

// userID resolves the current user from the stored credential, failing
// closed to [ErrNotLoggedIn].
func (c *Core) userID(ctx context.Context) (string, error) {
	token, err := c.store.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotLoggedIn
	}
	cl, err := claims.Decode(token)
	if err != nil || cl.UserID == "" {
		return "", ErrNotLoggedIn
	}
	return cl.UserID, nil
}

// LoadMenu returns the current user's menu tree, served from the per-user
// cache when fresh.
func (c *Core) LoadMenu(ctx context.Context) ([]menu.Node, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return c.menu.Load(ctx, userID)
}

// RefreshMenu drops the current user's cache entry and reloads. Used after
// permission-affecting events instead of waiting out the TTL.
func (c *Core) RefreshMenu(ctx context.Context) ([]menu.Node, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return c.menu.Refresh(ctx, userID)
}

// VisibleMenu loads the current user's tree and filters it down to the
// nodes the derived permission state allows.
func (c *Core) VisibleMenu(ctx context.Context) ([]menu.Node, error) {
	if _, err := c.LoadMenu(ctx); err != nil {
		return nil, err
	}
	return c.menu.VisibleTree(), nil
}

// MenuTree returns the most recently loaded tree without fetching.
func (c *Core) MenuTree() []menu.Node {
	return c.menu.Tree()
}

// FindRoute searches the current tree in pre-order.
func (c *Core) FindRoute(route string) *menu.Node {
	return c.menu.FindByRoute(route)
}

// Breadcrumb builds the root-to-leaf trail for route from the current
// tree.
func (c *Core) Breadcrumb(route string) []menu.Crumb {
	return c.menu.BreadcrumbFor(route)
}

/*
====================================
GUARD
====================================
*/

// Admit gates a navigation attempt.
func (c *Core) Admit(ctx context.Context, route string) guard.Decision {
	d := c.guard.Admit(ctx, route)
	if !d.Allow {
		c.audit(ctx, EventGuardRedirect, false, d.Err, route, d.Reason)
	}
	return d
}

// RequireAnonymous gates routes reserved for logged-out users.
func (c *Core) RequireAnonymous(ctx context.Context, route string) guard.Decision {
	d := c.guard.RequireAnonymous(ctx, route)
	if !d.Allow {
		c.audit(ctx, EventGuardRedirect, false, d.Err, route, d.Reason)
	}
	return d
}

// RequirePermission admits only sessions holding at least one of perms.
func (c *Core) RequirePermission(ctx context.Context, route string, perms ...string) guard.Decision {
	d := c.guard.RequirePermission(ctx, route, perms...)
	if !d.Allow {
		c.audit(ctx, EventGuardRedirect, false, d.Err, route, d.Reason)
	}
	return d
}

// Guard exposes the underlying guard for middleware adapters.
func (c *Core) Guard() *guard.Guard {
	return c.guard
}

/*
====================================
SUBSCRIPTIONS
====================================
*/

// SubscribeMenu registers fn for every newly fetched menu tree.
func (c *Core) SubscribeMenu(fn func([]menu.Node)) error {
	return c.bus.Subscribe(menu.TopicLoaded, fn)
}

// SubscribePermissions registers fn for every recomputed permission
// snapshot.
func (c *Core) SubscribePermissions(fn func(permission.Snapshot)) error {
	return c.bus.Subscribe(permission.TopicChanged, fn)
}

// SubscribeTermination registers fn for session terminations; fn receives
// the reason.
func (c *Core) SubscribeTermination(fn func(string)) error {
	return c.bus.Subscribe(session.TopicTerminated, fn)
}

/*
====================================
OBSERVABILITY / LIFECYCLE
====================================
*/

// MetricsSnapshot returns a copy of the current counters.
func (c *Core) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Close drains and stops the audit dispatcher. The core must not be used
// afterwards.
func (c *Core) Close() {
	c.dispatcher.Close()
}

func (c *Core) audit(ctx context.Context, eventType string, success bool, opErr error, route, reason string) {
	uid, _ := c.userID(ctx) // best-effort attribution
	c.auditAs(ctx, uid, eventType, success, opErr, route, reason)
}

func (c *Core) auditAs(ctx context.Context, userID, eventType string, success bool, opErr error, route, reason string) {
	if c.dispatcher == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Route:     route,
		Reason:    reason,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	c.dispatcher.Emit(ctx, event)
}
