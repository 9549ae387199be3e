package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of inventory transaction
type TransactionType string

const (
	// TransactionTypeSale represents stock deducted by an order
	TransactionTypeSale TransactionType = "SALE"
	// TransactionTypePurchase represents stock received against a purchase receipt
	TransactionTypePurchase TransactionType = "PURCHASE"
	// TransactionTypeAdjustment represents a manual stock adjustment
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSale, TransactionTypePurchase, TransactionTypeAdjustment:
		return true
	}
	return false
}

// ReferenceType identifies the source document of a stock movement
type ReferenceType string

const (
	ReferenceTypeOrder           ReferenceType = "ORDER"
	ReferenceTypePurchaseReceipt ReferenceType = "PURCHASE_RECEIPT"
	ReferenceTypeManual          ReferenceType = "MANUAL"
)

// Transaction is one append-only ledger row recording a stock movement.
// Rows are never updated after insert; corrections are written as new rows.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_product"`
	Type          TransactionType `gorm:"type:varchar(20);not null;index:idx_inv_tx_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,2);not null"` // signed delta applied to stock
	PreviousStock decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NewStock      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReferenceType ReferenceType   `gorm:"type:varchar(30);not null;index:idx_inv_tx_ref"`
	ReferenceID   string          `gorm:"type:varchar(50);not null;index:idx_inv_tx_ref"`
	CreatedAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "inventory_transactions"
}

// NewTransaction builds a ledger row for a stock change that moved stock
// from previous to previous+quantity.
func NewTransaction(productID uuid.UUID, txType TransactionType, quantity, previous decimal.Decimal, refType ReferenceType, refID string) *Transaction {
	return &Transaction{
		ID:            uuid.New(),
		ProductID:     productID,
		Type:          txType,
		Quantity:      quantity,
		PreviousStock: previous,
		NewStock:      previous.Add(quantity),
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedAt:     time.Now(),
	}
}
