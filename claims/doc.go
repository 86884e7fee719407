// Package claims decodes the payload embedded in a bearer token without
// verifying its signature and without any I/O.
//
// # Architecture boundaries
//
// The credential is issued and signed elsewhere; this package only reads the
// self-describing claims (expiry, roles, permissions, user id) that the rest
// of authcore derives local authorization state from. It must never perform
// network calls, touch storage, or import any sibling package.
//
// Decode failures are typed ([ErrMalformed]) so that callers can fail closed:
// an undecodable token is treated exactly like no session at all.
package claims
