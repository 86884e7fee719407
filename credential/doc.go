// Package credential owns persistence of the bearer credential: the token,
// its role, the auxiliary refresh token, and the remember-me flag.
//
// # Design
//
// [Store] is the only writer of its storage keys. It sits on top of the
// [Storage] interface, the persistent key/value area the host provides; the
// package ships an in-memory implementation for ephemeral hosts and tests,
// and a Redis-backed implementation that survives process restarts.
//
// A legacy single-key token is read as a fallback for installations that
// predate the JSON credential blob. It is never written, only read and
// cleared.
//
// # Failure semantics
//
// Malformed persisted JSON is treated as "credential absent" and never
// surfaces to callers as an error. Storage I/O failures do propagate.
package credential
