package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BaseHandler provides common response helpers for all handlers.
type BaseHandler struct {
	log *zap.Logger
}

// NewBaseHandler creates a BaseHandler
func NewBaseHandler(log *zap.Logger) BaseHandler {
	return BaseHandler{log: log}
}

// respond writes a success envelope
func (h *BaseHandler) respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.NewSuccessResponse(data))
}

// fail maps an error to its HTTP representation and writes it
func (h *BaseHandler) fail(c *gin.Context, err error) {
	status, body := dto.FromError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, body)
}

// badRequest writes a 400 with the binding error message
func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", err.Error()))
}

// storeDB returns the tenant database handle resolved for this request
func (h *BaseHandler) storeDB(c *gin.Context) (*gorm.DB, bool) {
	handle := middleware.GetHandle(c)
	if handle == nil {
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse("CONNECTION_UNAVAILABLE", "no store handle resolved for request"))
		return nil, false
	}
	return handle.DB, true
}

// uuidParam parses a UUID path parameter, writing a 400 on failure
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			dto.NewErrorResponse("INVALID_INPUT", "invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}
