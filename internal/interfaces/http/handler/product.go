package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcatalog "github.com/pos/backend/internal/application/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductHandler exposes the catalog and manual stock adjustments over HTTP.
type ProductHandler struct {
	BaseHandler
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(log *zap.Logger) *ProductHandler {
	return &ProductHandler{BaseHandler: NewBaseHandler(log)}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("/:id", h.Get)
		products.POST("/:id/stock-adjustments", h.AdjustStock)
	}
}

func (h *ProductHandler) service(db *gorm.DB) *appcatalog.CatalogService {
	return appcatalog.NewCatalogService(db, h.log)
}

// Create creates a product
func (h *ProductHandler) Create(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	var req appcatalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	product, err := h.service(db).CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, product)
}

// Get returns a product
func (h *ProductHandler) Get(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.service(db).GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, product)
}

// AdjustStock applies a signed manual stock correction
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	db, ok := h.storeDB(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.service(db).AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, resp)
}
