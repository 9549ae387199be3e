package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Opener constructs a pooled connection for one tenant URI. Injected so
// tests can substitute a fake without a live database.
type Opener func(uri string) (*gorm.DB, error)

// Handle owns the pooled connection to one store database. Engines borrow a
// handle per request and never keep it beyond the request.
type Handle struct {
	Subdomain string
	DB        *gorm.DB
}

// Ping issues a liveness probe with a bounded wait. Pool exhaustion or a
// saturated server surfaces as the retryable ErrConnectionUnavailable
// instead of blocking the caller indefinitely.
func (h *Handle) Ping(ctx context.Context, timeout time.Duration) error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return shared.ErrConnectionUnavailable
		}
		return err
	}
	return nil
}

// Close closes the underlying connection pool.
func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type poolEntry struct {
	once   sync.Once
	handle *Handle
	err    error
}

// HealthReport is the outcome of a health-check sweep over the cached
// handles.
type HealthReport struct {
	Default bool            `json:"default"`
	Tenants map[string]bool `json:"tenants"`
}

// PoolManager owns one pooled connection per tenant, created lazily on
// first use and cached for the process lifetime. It is the only
// cross-request shared mutable state in the routing layer; handle creation
// is serialized per key so concurrent first access cannot construct
// duplicate pools.
type PoolManager struct {
	mu            sync.Mutex
	entries       map[string]*poolEntry
	registry      *tenant.Registry
	defaultHandle *Handle
	open          Opener
	pingTimeout   time.Duration
	log           *zap.Logger
}

// NewPoolManager creates a pool manager. The default handle must already be
// open; it is the fallback target whenever a tenant pool is unknown or
// unavailable.
func NewPoolManager(registry *tenant.Registry, defaultHandle *Handle, open Opener, pingTimeout time.Duration, log *zap.Logger) *PoolManager {
	return &PoolManager{
		entries:       make(map[string]*poolEntry),
		registry:      registry,
		defaultHandle: defaultHandle,
		open:          open,
		pingTimeout:   pingTimeout,
		log:           log,
	}
}

// Default returns the fallback handle.
func (m *PoolManager) Default() *Handle {
	return m.defaultHandle
}

// Get returns the handle for a subdomain, constructing and caching it on
// first use. Unknown or inactive tenants fall back to the default handle
// with a warning; unknown subdomains are common during onboarding and this
// is a deliberate degrade-gracefully policy, not an error. A failed
// construction also falls back, and the entry is evicted so a later call
// can retry.
func (m *PoolManager) Get(subdomain string) *Handle {
	desc, ok := m.registry.Lookup(subdomain)
	if !ok || !desc.IsActive {
		m.log.Warn("unknown or inactive tenant, using default store",
			zap.String("subdomain", subdomain))
		return m.defaultHandle
	}

	e := m.entry(subdomain)
	e.once.Do(func() {
		e.handle, e.err = m.construct(subdomain, desc.ConnectionURI)
	})
	if e.err != nil {
		m.log.Warn("tenant pool unavailable, using default store",
			zap.String("subdomain", subdomain),
			zap.Error(e.err))
		m.evict(subdomain, e)
		return m.defaultHandle
	}
	return e.handle
}

// Add registers or replaces a tenant connection at runtime. It constructs
// the pool first and leaves prior state untouched when construction fails.
func (m *PoolManager) Add(subdomain, connectionURI string) bool {
	h, err := m.construct(subdomain, connectionURI)
	if err != nil {
		m.log.Error("failed to add tenant pool",
			zap.String("subdomain", subdomain),
			zap.Error(err))
		return false
	}

	m.registry.Register(tenant.Descriptor{
		Subdomain:     subdomain,
		ConnectionURI: connectionURI,
		IsActive:      true,
	})

	e := &poolEntry{}
	e.once.Do(func() { e.handle = h })

	m.mu.Lock()
	old := m.entries[subdomain]
	m.entries[subdomain] = e
	m.mu.Unlock()

	if old != nil && old.handle != nil {
		_ = old.handle.Close()
	}
	m.log.Info("tenant pool registered", zap.String("subdomain", subdomain))
	return true
}

// Remove closes and evicts a cached handle. Returns false when no handle
// was cached for the subdomain.
func (m *PoolManager) Remove(subdomain string) bool {
	m.mu.Lock()
	e, ok := m.entries[subdomain]
	delete(m.entries, subdomain)
	m.mu.Unlock()

	if !ok {
		return false
	}
	if e.handle != nil {
		_ = e.handle.Close()
	}
	m.log.Info("tenant pool removed", zap.String("subdomain", subdomain))
	return true
}

// HealthCheck probes the default handle and every cached tenant handle. A
// failing probe marks the tenant unhealthy but does not evict its handle;
// transient failures must not cause cache churn.
func (m *PoolManager) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{Tenants: make(map[string]bool)}
	report.Default = m.defaultHandle.Ping(ctx, m.pingTimeout) == nil

	m.mu.Lock()
	cached := make(map[string]*Handle, len(m.entries))
	for sub, e := range m.entries {
		if e.handle != nil {
			cached[sub] = e.handle
		}
	}
	m.mu.Unlock()

	for sub, h := range cached {
		report.Tenants[sub] = h.Ping(ctx, m.pingTimeout) == nil
	}
	return report
}

// Close closes every cached handle and the default handle. Called once at
// process shutdown.
func (m *PoolManager) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*poolEntry)
	m.mu.Unlock()

	for sub, e := range entries {
		if e.handle != nil {
			if err := e.handle.Close(); err != nil {
				m.log.Warn("failed to close tenant pool",
					zap.String("subdomain", sub), zap.Error(err))
			}
		}
	}
	_ = m.defaultHandle.Close()
}

func (m *PoolManager) entry(subdomain string) *poolEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[subdomain]
	if !ok {
		e = &poolEntry{}
		m.entries[subdomain] = e
	}
	return e
}

func (m *PoolManager) evict(subdomain string, failed *poolEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// only evict the entry we saw fail; a concurrent Add may have replaced it
	if m.entries[subdomain] == failed {
		delete(m.entries, subdomain)
	}
}

func (m *PoolManager) construct(subdomain, uri string) (*Handle, error) {
	db, err := m.open(uri)
	if err != nil {
		return nil, err
	}
	return &Handle{Subdomain: subdomain, DB: db}, nil
}
