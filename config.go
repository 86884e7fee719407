package authcore

import (
	"fmt"
	"strings"
	"time"

	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/menu"
	"github.com/fleetadmin/authcore/permission"
	"github.com/fleetadmin/authcore/session"
)

// Config groups every tunable of the core. Start from [DefaultConfig] and
// override; zero values for individual fields select their defaults at
// Build.
type Config struct {
	Credential CredentialConfig
	Session    SessionConfig
	Permission PermissionConfig
	Menu       MenuConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls the persisted credential layout.
type CredentialConfig struct {
	// KeyPrefix namespaces every key the credential store writes.
	KeyPrefix string
	// LegacyTokenKey names the pre-blob plain-string token key, read as a
	// fallback and never written.
	LegacyTokenKey string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls termination targets and expiry queries.
type SessionConfig struct {
	// LoginRoute receives every post-termination redirect.
	LoginRoute string
	// LandingRoute is the default authenticated route, used when an
	// authenticated user is turned away from anonymous-only routes.
	LandingRoute string
	// ExpiryThreshold bounds IsExpiringSoon.
	ExpiryThreshold time.Duration
}

/*
====================================
PERMISSION CONFIG
====================================
*/

// PermissionConfig controls permission derivation.
type PermissionConfig struct {
	// PrivilegedRole unconditionally satisfies every permission check.
	PrivilegedRole string
}

/*
====================================
MENU CONFIG
====================================
*/

// MenuConfig controls the menu fetch and cache.
type MenuConfig struct {
	// BaseURL of the backend serving the menu endpoint. Ignored when an
	// explicit fetcher is installed on the builder.
	BaseURL string
	// Endpoint overrides the menu path, default /menu/user-menu.
	Endpoint string
	// CacheTTL bounds how long a per-user tree is served without refetch.
	CacheTTL time.Duration
	// FetchTimeout bounds a single menu request.
	FetchTimeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls counter collection.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the core ships with.
func DefaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			KeyPrefix:      credential.DefaultKeyPrefix,
			LegacyTokenKey: credential.DefaultLegacyTokenKey,
		},
		Session: SessionConfig{
			LoginRoute:      "/login",
			LandingRoute:    "/dashboard",
			ExpiryThreshold: session.DefaultExpiryThreshold,
		},
		Permission: PermissionConfig{
			PrivilegedRole: permission.DefaultPrivilegedRole,
		},
		Menu: MenuConfig{
			Endpoint:     menu.DefaultEndpoint,
			CacheTTL:     menu.DefaultTTL,
			FetchTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// validate rejects configurations the core cannot run with. Zero values
// that have defaults are filled in first by normalize.
func (c *Config) validate() error {
	if !strings.HasPrefix(c.Session.LoginRoute, "/") {
		return fmt.Errorf("%w: login route must start with /", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Session.LandingRoute, "/") {
		return fmt.Errorf("%w: landing route must start with /", ErrInvalidConfig)
	}
	if c.Session.LoginRoute == c.Session.LandingRoute {
		return fmt.Errorf("%w: login and landing routes must differ", ErrInvalidConfig)
	}
	if c.Session.ExpiryThreshold < 0 {
		return fmt.Errorf("%w: negative expiry threshold", ErrInvalidConfig)
	}
	if c.Menu.CacheTTL < 0 {
		return fmt.Errorf("%w: negative menu cache TTL", ErrInvalidConfig)
	}
	if c.Menu.FetchTimeout < 0 {
		return fmt.Errorf("%w: negative menu fetch timeout", ErrInvalidConfig)
	}
	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: negative audit buffer size", ErrInvalidConfig)
	}
	return nil
}

// normalize fills zero fields with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Credential.KeyPrefix == "" {
		c.Credential.KeyPrefix = def.Credential.KeyPrefix
	}
	if c.Credential.LegacyTokenKey == "" {
		c.Credential.LegacyTokenKey = def.Credential.LegacyTokenKey
	}
	if c.Session.LoginRoute == "" {
		c.Session.LoginRoute = def.Session.LoginRoute
	}
	if c.Session.LandingRoute == "" {
		c.Session.LandingRoute = def.Session.LandingRoute
	}
	if c.Session.ExpiryThreshold == 0 {
		c.Session.ExpiryThreshold = def.Session.ExpiryThreshold
	}
	if c.Permission.PrivilegedRole == "" {
		c.Permission.PrivilegedRole = def.Permission.PrivilegedRole
	}
	if c.Menu.Endpoint == "" {
		c.Menu.Endpoint = def.Menu.Endpoint
	}
	if c.Menu.CacheTTL == 0 {
		c.Menu.CacheTTL = def.Menu.CacheTTL
	}
	if c.Menu.FetchTimeout == 0 {
		c.Menu.FetchTimeout = def.Menu.FetchTimeout
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}
