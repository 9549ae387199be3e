package purchasing

import (
	"time"

	"github.com/google/uuid"
	domain "github.com/pos/backend/internal/domain/purchasing"
	"github.com/shopspring/decimal"
)

// CreateReceiptItemRequest is one ordered line of a new purchase receipt.
// ProductID is optional: free-form lines carry a description only and are
// never stocked in.
type CreateReceiptItemRequest struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateReceiptRequest creates a purchase receipt with its items.
type CreateReceiptRequest struct {
	SupplierID uuid.UUID                  `json:"supplier_id" binding:"required"`
	Items      []CreateReceiptItemRequest `json:"items" binding:"required,min=1"`
}

// ReceiveItemRequest sets one item's cumulative received quantity.
type ReceiveItemRequest struct {
	ItemID           uuid.UUID       `json:"item_id" binding:"required"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// ReceiveItemsRequest records one receiving batch against a receipt.
type ReceiveItemsRequest struct {
	Items []ReceiveItemRequest `json:"items" binding:"required,min=1"`
}

// ReceiptResponse is the view of a purchase receipt.
type ReceiptResponse struct {
	ID            uuid.UUID             `json:"id"`
	ReceiptNumber string                `json:"receipt_number"`
	SupplierID    uuid.UUID             `json:"supplier_id"`
	Status        domain.ReceiptStatus  `json:"status"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Tax           decimal.Decimal       `json:"tax"`
	Total         decimal.Decimal       `json:"total"`
	CreatedAt     time.Time             `json:"created_at"`
	Items         []ReceiptItemResponse `json:"items"`
}

// ReceiptItemResponse is the view of one receipt line.
type ReceiptItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        *uuid.UUID      `json:"product_id,omitempty"`
	Description      string          `json:"description,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Total            decimal.Decimal `json:"total"`
}

// ToReceiptResponse maps a receipt aggregate to its response view.
func ToReceiptResponse(r *domain.PurchaseReceipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		SupplierID:    r.SupplierID,
		Status:        r.Status,
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		Total:         r.Total,
		CreatedAt:     r.CreatedAt,
		Items:         make([]ReceiptItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, ReceiptItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Description:      it.Description,
			Quantity:         it.Quantity,
			ReceivedQuantity: it.ReceivedQuantity,
			UnitPrice:        it.UnitPrice,
			Total:            it.Total,
		})
	}
	return resp
}
