package credential

import (
	"context"
	"encoding/json"
	"errors"
)

// Storage key names, relative to the store's prefix. The legacy token key is
// configured separately and used verbatim.
const (
	credentialKey = "credential"
	refreshKey    = "refresh_token"
	rememberKey   = "remember_me"
)

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "authcore:"

// DefaultLegacyTokenKey is the pre-blob plain-string token key, read as a
// fallback and removed on Clear, never written.
const DefaultLegacyTokenKey = "token"

// credentialBlob is the JSON value persisted under the primary key.
type credentialBlob struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Store persists and retrieves the bearer credential. It is the single
// source of truth for "a credential exists": every read goes to storage,
// nothing is memoized.
type Store struct {
	storage   Storage
	prefix    string
	legacyKey string
}

// NewStore creates a credential [Store] over storage. prefix namespaces the
// keys the store owns; legacyTokenKey names the read-only fallback key.
// Empty arguments fall back to the package defaults.
func NewStore(storage Storage, prefix, legacyTokenKey string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if legacyTokenKey == "" {
		legacyTokenKey = DefaultLegacyTokenKey
	}
	return &Store{
		storage:   storage,
		prefix:    prefix,
		legacyKey: legacyTokenKey,
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Save overwrites the stored credential unconditionally. The credential blob
// and the refresh token are two separate writes; a failure between them can
// leave one without the other, which is an accepted limitation.
func (s *Store) Save(ctx context.Context, token, role, refreshToken string) error {
	data, err := json.Marshal(credentialBlob{Token: token, Role: role})
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key(credentialKey), string(data)); err != nil {
		return err
	}

	if refreshToken == "" {
		return s.storage.Delete(ctx, s.key(refreshKey))
	}
	return s.storage.Set(ctx, s.key(refreshKey), refreshToken)
}

// Token returns the current bearer token, or "" when no credential is
// stored. The primary JSON blob is checked first; when it is absent or
// unparsable the legacy plain-string key is consulted.
func (s *Store) Token(ctx context.Context) (string, error) {
	raw, err := s.storage.Get(ctx, s.key(credentialKey))
	switch {
	case err == nil:
		var blob credentialBlob
		if json.Unmarshal([]byte(raw), &blob) == nil && blob.Token != "" {
			return blob.Token, nil
		}
		// Corrupt blob: treat as absent and try the legacy key.
	case errors.Is(err, ErrKeyNotFound):
	default:
		return "", err
	}

	legacy, err := s.storage.Get(ctx, s.legacyKey)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return legacy, nil
}

// Role returns the stored role, or "" when absent.
func (s *Store) Role(ctx context.Context) (string, error) {
	raw, err := s.storage.Get(ctx, s.key(credentialKey))
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var blob credentialBlob
	if json.Unmarshal([]byte(raw), &blob) != nil {
		return "", nil
	}
	return blob.Role, nil
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	value, err := s.storage.Get(ctx, s.key(refreshKey))
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetRemember persists or removes the remember-me flag.
func (s *Store) SetRemember(ctx context.Context, remember bool) error {
	if !remember {
		return s.storage.Delete(ctx, s.key(rememberKey))
	}
	return s.storage.Set(ctx, s.key(rememberKey), "1")
}

// Remember reports whether the remember-me flag is set.
func (s *Store) Remember(ctx context.Context) (bool, error) {
	value, err := s.storage.Get(ctx, s.key(rememberKey))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Clear removes every key the store ever wrote, plus the legacy token key.
// It is idempotent: clearing an already-empty store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	keys := []string{
		s.key(credentialKey),
		s.key(refreshKey),
		s.key(rememberKey),
		s.legacyKey,
	}

	var firstErr error
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
