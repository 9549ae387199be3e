package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable menu item or stocked good.
type Product struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	CategoryID     *uuid.UUID      `gorm:"type:uuid;index"`
	Name           string          `gorm:"type:varchar(200);not null"`
	SKU            string          `gorm:"type:varchar(50);uniqueIndex:idx_products_sku,where:sku <> ''"`
	Price          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"` // e.g. 0.10 for 10%
	TrackInventory bool            `gorm:"not null;default:false"`
	Stock          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsActive       bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Category groups products on the menu.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(100);not null"`
	SortOrder int       `gorm:"not null;default:0"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// StoreSettings holds per-store settlement configuration. One row per tenant
// database.
type StoreSettings struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	PriceIncludesTax bool            `gorm:"not null;default:false"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"` // store default when a product has none
	CurrencyExponent int32           `gorm:"not null;default:0"`                   // minor-unit digits used for rounding
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreSettings) TableName() string {
	return "store_settings"
}

// Store is the catalog collaborator the settlement and receiving engines
// depend on. Stock mutations are transactional with the caller and append
// one inventory ledger row per change.
type Store interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// AdjustStock applies a signed delta to a product's stock under row
	// lock and returns the new stock level. A negative delta that would
	// take stock below zero fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal, refType, refID string) (decimal.Decimal, error)
}

// SettingsProvider exposes the store settings the settlement engine needs.
type SettingsProvider interface {
	Get(ctx context.Context) (*StoreSettings, error)
}
