package metrics

import "sync/atomic"

// MetricID identifies a single counter.
type MetricID uint16

const (
	// CredentialSaved counts credential writes (logins and renewals).
	CredentialSaved MetricID = iota
	// DecodeFailure counts bearer tokens that failed to decode.
	DecodeFailure
	// SessionTerminated counts voluntary logouts.
	SessionTerminated
	// SessionExpired counts terminations triggered by detected expiry.
	SessionExpired
	// MenuCacheHit counts menu loads answered from the per-user cache.
	MenuCacheHit
	// MenuCacheMiss counts menu loads that required a fetch.
	MenuCacheMiss
	// MenuFetchFailure counts failed menu fetches.
	MenuFetchFailure
	// GuardAllowed counts admitted navigation attempts.
	GuardAllowed
	// GuardRedirected counts navigation attempts turned into redirects.
	GuardRedirected

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls metric collection.
type Config struct {
	Enabled bool
}

// Metrics holds atomic counters. The zero value and nil are both inert.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// New creates a [Metrics] instance. When cfg.Enabled is false it returns
// nil, which every method accepts.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enabled: true}
}

// Inc increments the counter for id. No-op on a nil or disabled receiver.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot is a point-in-time copy of all counters keyed by name.
type Snapshot struct {
	Counters map[string]uint64
}

// Snapshot returns a deep copy of the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[string]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id.String()] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}

// String returns the stable counter name for id.
func (id MetricID) String() string {
	switch id {
	case CredentialSaved:
		return "credential_saved"
	case DecodeFailure:
		return "decode_failure"
	case SessionTerminated:
		return "session_terminated"
	case SessionExpired:
		return "session_expired"
	case MenuCacheHit:
		return "menu_cache_hit"
	case MenuCacheMiss:
		return "menu_cache_miss"
	case MenuFetchFailure:
		return "menu_fetch_failure"
	case GuardAllowed:
		return "guard_allowed"
	case GuardRedirected:
		return "guard_redirected"
	default:
		return "unknown"
	}
}
