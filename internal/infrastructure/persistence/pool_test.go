package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pos/backend/internal/domain/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestPool(t *testing.T, registry *tenant.Registry, open Opener) *PoolManager {
	t.Helper()
	defaultHandle := &Handle{Subdomain: "demo", DB: newTestDB(t)}
	return NewPoolManager(registry, defaultHandle, open, time.Second, zap.NewNop())
}

func TestPoolManager_ConcurrentFirstAccessConstructsOnce(t *testing.T) {
	registry := tenant.NewRegistry([]tenant.Descriptor{
		{Subdomain: "acme", ConnectionURI: "postgres://acme", IsActive: true},
	})

	var constructed atomic.Int32
	tenantDB := newTestDB(t)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		constructed.Add(1)
		return tenantDB, nil
	})

	const goroutines = 100
	handles := make([]*Handle, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			handles[i] = pool.Get("acme")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), constructed.Load())
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, "acme", handles[0].Subdomain)
}

func TestPoolManager_UnknownTenantFallsBackToDefault(t *testing.T) {
	registry := tenant.NewRegistry(nil)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		t.Fatal("opener must not be called for unknown tenants")
		return nil, nil
	})

	h := pool.Get("ghost")
	assert.Same(t, pool.Default(), h)
}

func TestPoolManager_InactiveTenantFallsBackToDefault(t *testing.T) {
	registry := tenant.NewRegistry([]tenant.Descriptor{
		{Subdomain: "dormant", ConnectionURI: "postgres://dormant", IsActive: false},
	})
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		t.Fatal("opener must not be called for inactive tenants")
		return nil, nil
	})

	assert.Same(t, pool.Default(), pool.Get("dormant"))
}

func TestPoolManager_FailedConstructionEvictsAndRetries(t *testing.T) {
	registry := tenant.NewRegistry([]tenant.Descriptor{
		{Subdomain: "acme", ConnectionURI: "postgres://acme", IsActive: true},
	})

	var calls atomic.Int32
	tenantDB := newTestDB(t)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return tenantDB, nil
	})

	// first access fails and degrades to the default store
	assert.Same(t, pool.Default(), pool.Get("acme"))
	// the failed entry was evicted, so the next access constructs again
	h := pool.Get("acme")
	assert.NotSame(t, pool.Default(), h)
	assert.Equal(t, "acme", h.Subdomain)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPoolManager_AddReplacesAndRemoveEvicts(t *testing.T) {
	registry := tenant.NewRegistry(nil)
	tenantDB := newTestDB(t)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		return tenantDB, nil
	})

	require.True(t, pool.Add("bistro", "postgres://bistro"))
	desc, ok := registry.Lookup("bistro")
	require.True(t, ok)
	assert.True(t, desc.IsActive)

	h := pool.Get("bistro")
	assert.Equal(t, "bistro", h.Subdomain)

	assert.True(t, pool.Remove("bistro"))
	assert.False(t, pool.Remove("bistro"))
}

func TestPoolManager_AddFailureLeavesPriorStateUntouched(t *testing.T) {
	registry := tenant.NewRegistry(nil)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		return nil, errors.New("unreachable")
	})

	assert.False(t, pool.Add("bistro", "postgres://bistro"))
	_, ok := registry.Lookup("bistro")
	assert.False(t, ok)
}

func TestPoolManager_HealthCheckDoesNotEvict(t *testing.T) {
	registry := tenant.NewRegistry([]tenant.Descriptor{
		{Subdomain: "acme", ConnectionURI: "postgres://acme", IsActive: true},
	})

	var constructed atomic.Int32
	tenantDB := newTestDB(t)
	pool := newTestPool(t, registry, func(uri string) (*gorm.DB, error) {
		constructed.Add(1)
		return tenantDB, nil
	})

	first := pool.Get("acme")
	report := pool.HealthCheck(context.Background())
	assert.True(t, report.Default)
	assert.True(t, report.Tenants["acme"])

	// the cached handle survives the sweep
	assert.Same(t, first, pool.Get("acme"))
	assert.Equal(t, int32(1), constructed.Load())
}

func TestHandle_Ping(t *testing.T) {
	h := &Handle{Subdomain: "demo", DB: newTestDB(t)}
	assert.NoError(t, h.Ping(context.Background(), time.Second))
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u@db.railway.internal:5432/pos", "postgres://u@db.railway.internal:5432/pos?sslmode=disable"},
		{"postgres://u@pg.ondigitalocean.com:25060/pos", "postgres://u@pg.ondigitalocean.com:25060/pos?sslmode=require"},
		{"postgres://u@pg.ondigitalocean.com:25060/pos?x=1", "postgres://u@pg.ondigitalocean.com:25060/pos?x=1&sslmode=require"},
		// an explicit sslmode always wins
		{"postgres://u@db.railway.internal/pos?sslmode=verify-full", "postgres://u@db.railway.internal/pos?sslmode=verify-full"},
		// unmarked hosts are left alone
		{"postgres://u@localhost:5432/pos", "postgres://u@localhost:5432/pos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDSN(tt.in), tt.in)
	}
}
