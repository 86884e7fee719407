package permission

import (
	"sort"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"github.com/fleetadmin/authcore/claims"
	"github.com/fleetadmin/authcore/internal/metrics"
)

// TopicChanged is the event bus topic carrying a [Snapshot] every time the
// derived sets are recomputed.
const TopicChanged = "authcore.permissions.changed"

// DefaultPrivilegedRole unconditionally satisfies every permission check.
const DefaultPrivilegedRole = "SUPER_ADMIN"

// Config controls permission derivation.
type Config struct {
	// PrivilegedRole is the role value that short-circuits permission
	// queries. Empty selects [DefaultPrivilegedRole].
	PrivilegedRole string
}

// Snapshot is an immutable copy of the derived sets, sorted for
// deterministic consumption.
type Snapshot struct {
	Permissions []string
	Roles       []string
}

// Deriver holds the permission and role sets derived from the most recent
// credential. Queries are safe for concurrent use with recomputation.
type Deriver struct {
	cfg     Config
	bus     evbus.Bus
	metrics *metrics.Metrics

	mu    sync.RWMutex
	perms map[string]struct{}
	roles map[string]struct{}
}

// NewDeriver creates a [Deriver] with empty sets. bus and m may be nil.
func NewDeriver(cfg Config, bus evbus.Bus, m *metrics.Metrics) *Deriver {
	if cfg.PrivilegedRole == "" {
		cfg.PrivilegedRole = DefaultPrivilegedRole
	}
	return &Deriver{
		cfg:     cfg,
		bus:     bus,
		metrics: m,
		perms:   make(map[string]struct{}),
		roles:   make(map[string]struct{}),
	}
}

// PrivilegedRole returns the configured super-admin role value.
func (d *Deriver) PrivilegedRole() string {
	return d.cfg.PrivilegedRole
}

// Recompute rederives both sets from token and republishes them. An
// undecodable token leaves the caller with empty sets.
func (d *Deriver) Recompute(token string) {
	perms := make(map[string]struct{})
	roles := make(map[string]struct{})

	if c, err := claims.Decode(token); err == nil {
		for _, p := range c.Permissions {
			perms[p] = struct{}{}
		}
		for _, r := range c.Roles {
			roles[r] = struct{}{}
		}
	} else {
		d.metrics.Inc(metrics.DecodeFailure)
	}

	d.mu.Lock()
	d.perms = perms
	d.roles = roles
	d.mu.Unlock()

	d.publish()
}

// Clear empties both sets and republishes. Called on logout so no consumer
// keeps acting on a terminated session's capabilities.
func (d *Deriver) Clear() {
	d.mu.Lock()
	d.perms = make(map[string]struct{})
	d.roles = make(map[string]struct{})
	d.mu.Unlock()

	d.publish()
}

func (d *Deriver) publish() {
	if d.bus != nil {
		d.bus.Publish(TopicChanged, d.Snapshot())
	}
}

// IsPrivileged reports whether the role set contains the privileged role.
func (d *Deriver) IsPrivileged() bool {
	return d.hasRole(d.cfg.PrivilegedRole)
}

// HasPermission reports whether p was granted. The privileged role answers
// true for any p.
func (d *Deriver) HasPermission(p string) bool {
	if d.IsPrivileged() {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.perms[p]
	return ok
}

// HasAnyPermission reports whether at least one of list was granted. An
// empty list answers false: "no requirements" is a menu-visibility concern,
// not a permission query.
func (d *Deriver) HasAnyPermission(list []string) bool {
	if d.IsPrivileged() {
		return true
	}
	if len(list) == 0 {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range list {
		if _, ok := d.perms[p]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every entry of list was granted.
func (d *Deriver) HasAllPermissions(list []string) bool {
	if d.IsPrivileged() {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range list {
		if _, ok := d.perms[p]; !ok {
			return false
		}
	}
	return true
}

// HasRole reports plain role membership, with no privileged short-circuit.
func (d *Deriver) HasRole(r string) bool {
	return d.hasRole(r)
}

// HasAnyRole reports whether at least one of list is held.
func (d *Deriver) HasAnyRole(list []string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range list {
		if _, ok := d.roles[r]; ok {
			return true
		}
	}
	return false
}

func (d *Deriver) hasRole(r string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.roles[r]
	return ok
}

// Snapshot returns sorted copies of the current sets.
func (d *Deriver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := Snapshot{
		Permissions: make([]string, 0, len(d.perms)),
		Roles:       make([]string, 0, len(d.roles)),
	}
	for p := range d.perms {
		snap.Permissions = append(snap.Permissions, p)
	}
	for r := range d.roles {
		snap.Roles = append(snap.Roles, r)
	}
	sort.Strings(snap.Permissions)
	sort.Strings(snap.Roles)
	return snap
}
