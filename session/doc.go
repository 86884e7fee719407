// Package session answers "is someone logged in" and terminates sessions.
//
// # Design
//
// Logged-in state is a pure function of the stored credential and the wall
// clock, recomputed on every query; nothing is memoized, so expiry can never
// be observed stale. Expiry is detected lazily at query time — there is no
// background timer.
//
// Termination clears the credential store and redirects through the
// [Navigator] port. The manager also installs a back-navigation interceptor
// for the lifetime of the process: while no valid session exists, any
// backward navigation is forced to the login route. The policy lives here;
// the interception mechanism belongs to the host.
package session
