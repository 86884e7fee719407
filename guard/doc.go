// Package guard decides whether a navigation attempt proceeds.
//
// # Design
//
// [Guard.Admit] is evaluated before each navigation: an unauthenticated or
// expired session is terminated on the spot (stale credentials cleared) and
// the attempt becomes a redirect to the login route. The session machine has
// two states only — expiry is detected lazily here and in session queries,
// never by a timer.
//
// [Guard.RequireAnonymous] is the inverse, keeping authenticated users off
// the login route. An http middleware adapter is provided for
// server-rendered hosts.
package guard
