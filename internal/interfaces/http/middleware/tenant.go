package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/domain/tenant"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Keys used to stash the resolved store in gin.Context.
const (
	SubdomainKey = "subdomain"
	StoreCodeKey = "store_code"
	HandleKey    = "store_handle"

	// StoreOverrideParam lets tooling and tests pin a store explicitly,
	// bypassing origin-based resolution.
	StoreOverrideParam = "store"
)

// StoreResolver resolves every request to a store database handle.
// Resolution sources, in order: the explicit ?store= override, the Origin
// header, the Referer header, then the Host header. The resolved handle is
// stashed in the request context; handlers never touch the pool directly.
//
// A request whose origin yields no usable subdomain is rejected here, so
// no handler can accidentally write into the wrong store.
func StoreResolver(resolver *tenant.Resolver, pool *persistence.PoolManager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = c.GetHeader("Referer")
		}
		override := c.Query(StoreOverrideParam)

		res, err := resolver.Resolve(origin, c.Request.Host, override)
		if err != nil {
			status, body := dto.FromError(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		handle := pool.Get(res.Subdomain)

		c.Set(SubdomainKey, res.Subdomain)
		c.Set(HandleKey, handle)
		if res.StoreCode != "" {
			c.Set(StoreCodeKey, res.StoreCode)
		}

		ctx := c.Request.Context()
		ctx, _ = logger.WithSubdomain(ctx, logger.FromContext(ctx), res.Subdomain)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("store resolved",
			zap.String("subdomain", res.Subdomain),
			zap.String("served_by", handle.Subdomain))

		c.Next()
	}
}

// GetHandle retrieves the store handle stashed by StoreResolver.
func GetHandle(c *gin.Context) *persistence.Handle {
	if v, exists := c.Get(HandleKey); exists {
		if h, ok := v.(*persistence.Handle); ok {
			return h
		}
	}
	return nil
}

// GetSubdomain retrieves the resolved subdomain from gin.Context.
func GetSubdomain(c *gin.Context) string {
	if v, exists := c.Get(SubdomainKey); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
