// Package menu owns the permission-filtered, cached navigation tree.
//
// # Design
//
// The per-user tree comes from the backend via the [Fetcher] port (an HTTP
// implementation of GET /menu/user-menu ships with the package) and is
// cached in memory with a time-to-live, keyed by user id. A fresh cache
// entry is returned without touching the network, which is the point:
// several UI regions requesting the menu during one navigation must not
// each trigger a fetch. Concurrent misses for the same user are coalesced
// into a single fetch. Failed fetches are never cached; the next call
// retries.
//
// Visibility filtering consults the permission deriver's state with a
// menu-specific rule: a node with no required permissions is visible by
// default, which is deliberately distinct from the generic permission
// queries (where an empty requirement list answers false).
package menu
