package secrets

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
)

// LoadOptions selects which secrets Load requires.
type LoadOptions struct {
	// TokenKey names the API bearer token, constants.APIToken when empty.
	TokenKey string
	// RequireDatabase makes the archive database credentials mandatory.
	RequireDatabase bool
}

// Manager loads secrets from a Provider into a Store. It is safe for
// concurrent use and hands out copies of the store.
type Manager struct {
	Provider Provider
	opts     LoadOptions
	store    *Store
	mu       sync.RWMutex
}

// NewManager creates a new Manager instance with the provided Provider.
func NewManager(provider Provider, opts LoadOptions) *Manager {
	if opts.TokenKey == "" {
		opts.TokenKey = constants.APIToken.String()
	}

	return &Manager{
		Provider: provider,
		opts:     opts,
		store:    &Store{},
	}
}

// Load reads the API token and the archive database credentials, then
// validates the result. The store is replaced only when everything succeeded.
func (m *Manager) Load(ctx context.Context) error {
	if m.Provider == nil {
		return ewrap.New("secrets provider is required")
	}

	next := &Store{}

	if err := m.loadSecret(ctx, m.opts.TokenKey, &next.APICredentials.Token, true); err != nil {
		return err
	}

	required := m.opts.RequireDatabase

	if err := m.loadSecret(ctx, constants.ArchiveDBUsername.String(), &next.DBCredentials.Username, required); err != nil {
		return err
	}

	if err := m.loadSecret(ctx, constants.ArchiveDBPassword.String(), &next.DBCredentials.Password, required); err != nil {
		return err
	}

	if err := m.validate(next); err != nil {
		return err
	}

	m.mu.Lock()
	m.store = next
	m.mu.Unlock()

	return nil
}

// GetStore returns a copy of the secrets store.
func (m *Manager) GetStore() *Store {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storeCopy := *m.store

	return &storeCopy
}

// SetStore replaces the secrets store.
func (m *Manager) SetStore(secrets *Store) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = secrets

	return m.store
}

func (m *Manager) loadSecret(ctx context.Context, key string, target *string, required bool) error {
	value, err := m.Provider.GetSecret(ctx, key)
	if err != nil {
		if !required && errors.Is(err, ErrSecretNotFound) {
			return nil
		}

		return ewrap.Wrapf(err, "loading secret").
			WithMetadata("key", key)
	}

	*target = strings.TrimSpace(value)

	return nil
}

func (m *Manager) validate(store *Store) error {
	if store.APICredentials.Token == "" {
		return ewrap.New("api token is required").WithMetadata("key", m.opts.TokenKey)
	}

	db := store.DBCredentials
	if m.opts.RequireDatabase && (db.Username == "" || db.Password == "") {
		return ewrap.New("database credentials are required")
	}

	if (db.Username == "") != (db.Password == "") {
		return ewrap.New("database username and password must be set together")
	}

	return nil
}
