package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// SystemHandler exposes health and store pool administration. These routes
// sit outside the store resolver: they operate on the pool itself, not on
// one store.
type SystemHandler struct {
	BaseHandler
	pool *persistence.PoolManager
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(log *zap.Logger, pool *persistence.PoolManager) *SystemHandler {
	return &SystemHandler{BaseHandler: NewBaseHandler(log), pool: pool}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	stores := rg.Group("/stores")
	{
		stores.POST("", h.AddStore)
		stores.DELETE("/:subdomain", h.RemoveStore)
	}
}

// Health probes the default handle and every cached store handle.
// A degraded store never fails the endpoint; orchestrators read the body.
func (h *SystemHandler) Health(c *gin.Context) {
	report := h.pool.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if !report.Default {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(report))
}

// addStoreRequest registers a store connection at runtime
type addStoreRequest struct {
	Subdomain     string `json:"subdomain" binding:"required"`
	ConnectionURI string `json:"connection_uri" binding:"required"`
}

// AddStore registers or replaces a store connection without a restart
func (h *SystemHandler) AddStore(c *gin.Context) {
	var req addStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if !h.pool.Add(req.Subdomain, req.ConnectionURI) {
		c.JSON(dto.FromError(shared.ErrTenantUnavailable))
		return
	}
	h.respond(c, http.StatusCreated, gin.H{"subdomain": req.Subdomain})
}

// RemoveStore closes and evicts a cached store connection
func (h *SystemHandler) RemoveStore(c *gin.Context) {
	subdomain := c.Param("subdomain")
	removed := h.pool.Remove(subdomain)
	h.respond(c, http.StatusOK, gin.H{"subdomain": subdomain, "removed": removed})
}
