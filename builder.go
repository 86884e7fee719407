package authcore

import (
	"context"
	"net/http"

	evbus "github.com/asaskevich/EventBus"
	"github.com/redis/go-redis/v9"

	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/guard"
	internalaudit "github.com/fleetadmin/authcore/internal/audit"
	internalmetrics "github.com/fleetadmin/authcore/internal/metrics"
	"github.com/fleetadmin/authcore/menu"
	"github.com/fleetadmin/authcore/permission"
	"github.com/fleetadmin/authcore/session"
)

// Builder assembles a [Core]. Construction performs a single storage read
// to rehydrate permission state from a persisted credential; everything
// else waits until Core methods run.
type Builder struct {
	config Config

	redis      redis.UniversalClient
	storage    credential.Storage
	navigator  session.Navigator
	fetcher    menu.Fetcher
	httpClient *http.Client
	bus        evbus.Bus
	auditSink  AuditSink

	built bool
}

// New creates a [Builder] preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis selects a Redis-backed credential storage, the persistence
// that survives process restarts. Ignored when WithStorage is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStorage installs an explicit credential storage area.
func (b *Builder) WithStorage(storage credential.Storage) *Builder {
	b.storage = storage
	return b
}

// WithNavigator installs the host's navigation capability. Without one the
// core still works, but termination redirects and the back-navigation lock
// become no-ops.
func (b *Builder) WithNavigator(nav session.Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithFetcher installs an explicit menu fetcher, replacing the HTTP one
// the builder would otherwise derive from Config.Menu.BaseURL.
func (b *Builder) WithFetcher(f menu.Fetcher) *Builder {
	b.fetcher = f
	return b
}

// WithHTTPClient overrides the http.Client used by the derived menu
// fetcher.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithBus installs a shared event bus. Without one the core creates its
// own.
func (b *Builder) WithBus(bus evbus.Bus) *Builder {
	b.bus = bus
	return b
}

// WithAuditSink installs the audit destination and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the core together. A builder
// can only be used once.
func (b *Builder) Build() (*Core, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := b.config
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	storage := b.storage
	if storage == nil && b.redis != nil {
		storage = credential.NewRedisStorage(b.redis)
	}
	if storage == nil {
		storage = credential.NewMemoryStorage()
	}
	store := credential.NewStore(storage, cfg.Credential.KeyPrefix, cfg.Credential.LegacyTokenKey)

	bus := b.bus
	if bus == nil {
		bus = evbus.New()
	}

	m := internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})

	nav := b.navigator
	if nav == nil {
		nav = session.NopNavigator{}
	}

	sessions := session.NewManager(store, nav, bus, m, session.Config{
		LoginRoute:      cfg.Session.LoginRoute,
		ExpiryThreshold: cfg.Session.ExpiryThreshold,
	})

	deriver := permission.NewDeriver(permission.Config{
		PrivilegedRole: cfg.Permission.PrivilegedRole,
	}, bus, m)

	// A credential persisted by a previous process must yield the same
	// derived state it did before the restart, so the deriver is seeded
	// from storage at construction rather than waiting for a Login that
	// will never come.
	if token, err := store.Token(context.Background()); err == nil && token != "" {
		deriver.Recompute(token)
	}

	fetcher := b.fetcher
	if fetcher == nil {
		if cfg.Menu.BaseURL == "" {
			return nil, ErrFetcherRequired
		}
		client := b.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.Menu.FetchTimeout}
		}
		fetcher = menu.NewHTTPFetcher(cfg.Menu.BaseURL, cfg.Menu.Endpoint, client, store)
	}
	menuSvc := menu.NewService(fetcher, deriver, bus, m, cfg.Menu.CacheTTL)

	g := guard.New(sessions, deriver, m, guard.Config{
		LoginRoute:   cfg.Session.LoginRoute,
		LandingRoute: cfg.Session.LandingRoute,
	})

	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	core := &Core{
		cfg:         cfg,
		store:       store,
		sessions:    sessions,
		permissions: deriver,
		menu:        menuSvc,
		guard:       g,
		bus:         bus,
		dispatcher:  dispatcher,
		metrics:     m,
	}

	// Every termination path — voluntary, expiry-triggered, or issued from
	// inside a guard evaluation — must drop derived state, so the cleanup
	// rides the bus instead of each call site.
	_ = bus.Subscribe(session.TopicTerminated, core.onTerminated)

	return core, nil
}
