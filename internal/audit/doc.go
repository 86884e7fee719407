// Package audit defines the session audit event model, pluggable sinks, and
// the asynchronous dispatcher that forwards events to a sink without
// blocking authorization paths.
//
// # Architecture boundaries
//
// This package owns event buffering and delivery only. What gets audited —
// logins, terminations, guard redirects — is decided by the authcore root
// package. It must not import authcore or any sibling package.
package audit
