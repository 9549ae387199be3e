package purchasing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceiptStatus represents the receiving state of a purchase receipt
type ReceiptStatus string

const (
	ReceiptStatusPending           ReceiptStatus = "pending"
	ReceiptStatusPartiallyReceived ReceiptStatus = "partially_received"
	ReceiptStatusReceived          ReceiptStatus = "received"
	ReceiptStatusCancelled         ReceiptStatus = "cancelled"
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusPending, ReceiptStatusPartiallyReceived,
		ReceiptStatusReceived, ReceiptStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// ReceiptItem is one ordered line of a purchase receipt.
// Invariant: 0 <= ReceivedQuantity <= Quantity.
type ReceiptItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseReceiptID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"` // nil for free-form lines
	Description       string          `gorm:"type:varchar(200)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReceivedQuantity  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptItem) TableName() string {
	return "purchase_receipt_items"
}

// SetReceivedQuantity sets the cumulative received quantity, enforcing the
// [0, ordered] range.
func (i *ReceiptItem) SetReceivedQuantity(qty decimal.Decimal) error {
	if qty.IsNegative() || qty.GreaterThan(i.Quantity) {
		return shared.ErrInvalidQuantity
	}
	i.ReceivedQuantity = qty
	i.UpdatedAt = time.Now()
	return nil
}

// IsFullyReceived returns true once the full ordered quantity has arrived.
func (i *ReceiptItem) IsFullyReceived() bool {
	return i.ReceivedQuantity.GreaterThanOrEqual(i.Quantity)
}

// PurchaseReceipt records incoming stock from a supplier.
type PurchaseReceipt struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceiptNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        ReceiptStatus   `gorm:"type:varchar(30);not null;default:'pending';index"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
	Items         []ReceiptItem   `gorm:"foreignKey:PurchaseReceiptID"`
}

// TableName returns the table name for GORM
func (PurchaseReceipt) TableName() string {
	return "purchase_receipts"
}

// DeriveStatus computes the receipt status as a pure function of the item
// set: received when every item is fully received, partially_received when
// at least one item has arrived but not all are complete, pending
// otherwise. A cancelled receipt stays cancelled.
func (r *PurchaseReceipt) DeriveStatus() ReceiptStatus {
	if r.Status == ReceiptStatusCancelled {
		return ReceiptStatusCancelled
	}
	if len(r.Items) == 0 {
		return ReceiptStatusPending
	}
	allFull := true
	anyReceived := false
	for i := range r.Items {
		if r.Items[i].ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
		if !r.Items[i].IsFullyReceived() {
			allFull = false
		}
	}
	switch {
	case allFull:
		return ReceiptStatusReceived
	case anyReceived:
		return ReceiptStatusPartiallyReceived
	default:
		return ReceiptStatusPending
	}
}

// FindItem returns the item with the given ID, or nil when the ID does not
// belong to this receipt.
func (r *PurchaseReceipt) FindItem(itemID uuid.UUID) *ReceiptItem {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i]
		}
	}
	return nil
}

// Receipt numbers follow PN{6-digit sequence}/{2-digit year}, e.g.
// PN000042/26. Sequences restart each year.
const receiptNumberPrefix = "PN"

// FormatReceiptNumber renders a receipt number for a sequence and year.
func FormatReceiptNumber(sequence int64, year int) string {
	return fmt.Sprintf("%s%06d/%02d", receiptNumberPrefix, sequence, year%100)
}

// ReceiptNumberSuffix returns the LIKE-able year suffix for scanning
// existing numbers, e.g. "/26".
func ReceiptNumberSuffix(year int) string {
	return fmt.Sprintf("/%02d", year%100)
}

// ParseReceiptSequence extracts the sequence from a receipt number.
// Returns 0 for numbers that do not match the expected shape.
func ParseReceiptSequence(number string) int64 {
	if !strings.HasPrefix(number, receiptNumberPrefix) {
		return 0
	}
	rest := strings.TrimPrefix(number, receiptNumberPrefix)
	slash := strings.Index(rest, "/")
	if slash <= 0 {
		return 0
	}
	seq, err := strconv.ParseInt(rest[:slash], 10, 64)
	if err != nil {
		return 0
	}
	return seq
}
