package authcore

import (
	"io"

	internalaudit "github.com/fleetadmin/authcore/internal/audit"
	internalmetrics "github.com/fleetadmin/authcore/internal/metrics"
)

// AuditEvent is a structured audit record emitted by the core.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the core's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types the core emits.
const (
	// EventLogin records a credential save.
	EventLogin = "login"
	// EventLogout records a voluntary termination.
	EventLogout = "logout"
	// EventSessionExpired records a termination triggered by expiry.
	EventSessionExpired = "session_expired"
	// EventGuardRedirect records a navigation attempt turned away.
	EventGuardRedirect = "guard_redirect"
)

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot
