// Package authcore is the session and authorization core of a fleet/rental
// admin front end: it proves and maintains "who is logged in, with which
// permissions", caches the permission-filtered navigation menu, and gates
// every navigation attempt.
//
// The package consumes an opaque bearer credential issued elsewhere — no
// token issuance or signing happens here — and derives all local
// authorization state from the credential's embedded claims.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Core], [Builder], [Config],
// and audit/metrics value types. [Core] is the explicitly constructed
// session context: every consumer receives it by injection, there are no
// package-level singletons. Subpackages carry one concern each —
// credential, claims, session, permission, menu, guard — and internal/
// holds audit dispatch and metrics, never exported directly.
//
// # What this package must NOT do
//
//   - Expose storage clients, internal stores, or wire encodings in its
//     public API.
//   - Perform I/O outside of Core methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Failure contract
//
// Nothing in this core is fatal. Decode and storage-parse failures degrade
// to "unauthenticated, no permissions"; menu fetch failures propagate to
// the caller for retry and are never cached.
package authcore
