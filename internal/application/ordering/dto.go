package ordering

import (
	"time"

	"github.com/google/uuid"
	domain "github.com/pos/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// CreateOrderItemRequest is one line of a new order. Total is the
// caller-computed gross (unitPrice * quantity); when zero it is derived.
type CreateOrderItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// CreateOrderRequest creates an order with its items in one atomic unit.
type CreateOrderRequest struct {
	OrderNumber  string                   `json:"order_number"`
	TableID      *uuid.UUID               `json:"table_id"`
	EmployeeID   *uuid.UUID               `json:"employee_id"`
	CustomerName string                   `json:"customer_name"`
	Discount     decimal.Decimal          `json:"discount"`
	SalesChannel string                   `json:"sales_channel"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateOrderRequest merges the supplied fields onto the order row. Nil
// fields are preserved, never nulled.
type UpdateOrderRequest struct {
	CustomerName  *string          `json:"customer_name"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMethod *string          `json:"payment_method"`
	SalesChannel  *string          `json:"sales_channel"`
	TableID       *uuid.UUID       `json:"table_id"`
}

// UpdateStatusRequest drives the order state machine.
type UpdateStatusRequest struct {
	Status        domain.OrderStatus `json:"status" binding:"required"`
	PaymentMethod string             `json:"payment_method"`
}

// SplitOrderRequest moves the given items onto a fresh order.
type SplitOrderRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required,min=1"`
}

// OrderResponse is the settled view of an order.
type OrderResponse struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"order_number"`
	TableID       *uuid.UUID           `json:"table_id,omitempty"`
	Status        domain.OrderStatus   `json:"status"`
	CustomerName  string               `json:"customer_name,omitempty"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Tax           decimal.Decimal      `json:"tax"`
	Discount      decimal.Decimal      `json:"discount"`
	Total         decimal.Decimal      `json:"total"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	IsPaid        bool                 `json:"is_paid"`
	OrderedAt     time.Time            `json:"ordered_at"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	Items         []OrderItemResponse  `json:"items"`
}

// OrderItemResponse is the settled view of one order line.
type OrderItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	PriceBeforeTax decimal.Decimal `json:"price_before_tax"`
	Total          decimal.Decimal `json:"total"`
}

// ToOrderResponse maps an order aggregate to its response view.
func ToOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		TableID:       o.TableID,
		Status:        o.Status,
		CustomerName:  o.CustomerName,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentStatus: o.PaymentStatus,
		IsPaid:        o.IsPaid,
		OrderedAt:     o.OrderedAt,
		PaidAt:        o.PaidAt,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Discount:       it.Discount,
			Tax:            it.Tax,
			PriceBeforeTax: it.PriceBeforeTax,
			Total:          it.Total,
		})
	}
	return resp
}
