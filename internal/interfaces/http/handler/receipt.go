package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apppurchasing "github.com/pos/backend/internal/application/purchasing"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReceiptHandler exposes the purchase receipt engine over HTTP.
type ReceiptHandler struct {
	BaseHandler
}

// NewReceiptHandler creates a ReceiptHandler
func NewReceiptHandler(log *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: NewBaseHandler(log)}
}

// RegisterRoutes registers purchase receipt routes
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/purchase-receipts")
	{
		receipts.POST("", h.Create)
		receipts.GET("/:id", h.Get)
		receipts.POST("/:id/receive", h.ReceiveItems)
		receipts.POST("/:id/cancel", h.Cancel)
	}
}

func (h *ReceiptHandler) service(db *gorm.DB) *apppurchasing.ReceiptService {
	return apppurchasing.NewReceiptService(db, h.log)
}

// Create creates a pending purchase receipt with its items
func (h *ReceiptHandler) Create(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	var req apppurchasing.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(db).CreateReceipt(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, resp)
}

// Get returns a receipt with its items
func (h *ReceiptHandler) Get(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service(db).GetReceipt(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// ReceiveItems records one receiving batch against a receipt
func (h *ReceiptHandler) ReceiveItems(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apppurchasing.ReceiveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(db).ReceiveItems(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}

// Cancel marks a pending receipt cancelled
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service(db).CancelReceipt(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}
