package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appordering "github.com/pos/backend/internal/application/ordering"
	"github.com/pos/backend/internal/infrastructure/cache"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderHandler exposes the order settlement engine over HTTP.
type OrderHandler struct {
	BaseHandler
	redis *redis.Client // nil when caching is disabled
}

// NewOrderHandler creates an OrderHandler. redisClient may be nil.
func NewOrderHandler(log *zap.Logger, redisClient *redis.Client) *OrderHandler {
	return &OrderHandler{BaseHandler: NewBaseHandler(log), redis: redisClient}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("/:id", h.Get)
		orders.PUT("/:id", h.Update)
		orders.PUT("/:id/status", h.UpdateStatus)
		orders.POST("/:id/recalculate", h.Recalculate)
		orders.POST("/:id/split", h.Split)
		orders.DELETE("/:id/items/:itemId", h.RemoveItem)
		orders.PUT("/:id/items/:itemId/quantity", h.UpdateItemQuantity)
	}
}

// service builds a settlement engine bound to the request's store handle.
func (h *OrderHandler) service(c *gin.Context, db *gorm.DB) *appordering.SettlementService {
	svc := appordering.NewSettlementService(db, h.log)
	if h.redis != nil {
		svc = svc.WithSettingsProvider(cache.NewSettingsCache(
			persistence.NewGormSettingsRepository(db),
			h.redis,
			middleware.GetSubdomain(c),
			h.log,
		))
	}
	return svc
}

// Create creates an order with its items
func (h *OrderHandler) Create(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	var req appordering.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(c, db).CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, resp)
}

// Get returns an order with its items
func (h *OrderHandler) Get(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service(c, db).GetOrder(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// Update merges partial fields onto an order
func (h *OrderHandler) Update(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appordering.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(c, db).UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// UpdateStatus drives the order state machine
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appordering.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(c, db).UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// Recalculate recomputes an order's settlement
func (h *OrderHandler) Recalculate(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service(c, db).Recalculate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// Split moves items onto a fresh order on the same table
func (h *OrderHandler) Split(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appordering.SplitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	source, split, err := h.service(c, db).SplitOrder(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"source": source, "split": split})
}

// RemoveItem deletes one order line and recomputes the settlement
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	resp, err := h.service(c, db).RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// quantityRequest carries the new quantity for one order line
type quantityRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// UpdateItemQuantity changes one order line's quantity
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	qty, err := parseDecimal(req.Quantity)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(c, db).UpdateItemQuantity(c.Request.Context(), id, itemID, qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}
