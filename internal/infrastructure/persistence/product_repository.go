package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.Store using GORM. It is bound to
// one tenant handle (or transaction) at construction.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetProduct finds a product by its ID
func (r *GormProductRepository) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save persists product field changes
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(p).Error
}

// AdjustStock applies a signed stock delta under row lock and appends one
// inventory ledger row in the same transaction scope. A negative delta that
// would take stock below zero fails with ErrInsufficientStock and leaves
// the row unchanged.
func (r *GormProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal, refType, refID string) (decimal.Decimal, error) {
	var product catalog.Product
	if err := lockForUpdate(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, err
	}

	newStock := product.Stock.Add(delta)
	if newStock.IsNegative() {
		return decimal.Zero, shared.ErrInsufficientStock
	}

	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"stock": newStock, "updated_at": time.Now()}).Error; err != nil {
		return decimal.Zero, err
	}

	ledger := inventory.NewTransaction(
		id,
		ledgerTypeFor(inventory.ReferenceType(refType)),
		delta,
		product.Stock,
		inventory.ReferenceType(refType),
		refID,
	)
	if err := r.db.WithContext(ctx).Create(ledger).Error; err != nil {
		return decimal.Zero, err
	}
	return newStock, nil
}

func ledgerTypeFor(ref inventory.ReferenceType) inventory.TransactionType {
	switch ref {
	case inventory.ReferenceTypeOrder:
		return inventory.TransactionTypeSale
	case inventory.ReferenceTypePurchaseReceipt:
		return inventory.TransactionTypePurchase
	default:
		return inventory.TransactionTypeAdjustment
	}
}

// lockForUpdate adds a SELECT ... FOR UPDATE clause on dialects that
// support it. SQLite (used by in-memory tests) serializes writes on its
// own.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GormSettingsRepository loads per-store settlement settings.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the store settings row. A store without one gets the
// defaults: tax-exclusive pricing, zero tax, whole-unit rounding.
func (r *GormSettingsRepository) Get(ctx context.Context) (*catalog.StoreSettings, error) {
	var settings catalog.StoreSettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &catalog.StoreSettings{
			PriceIncludesTax: false,
			TaxRate:          decimal.Zero,
			CurrencyExponent: valueobject.DefaultExponent,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
