package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, stock string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		ID:             uuid.New(),
		Name:           "Nasi Goreng",
		Price:          decimal.NewFromInt(25000),
		TaxRate:        decimal.NewFromFloat(0.1),
		TrackInventory: true,
		Stock:          mustDecimal(t, stock),
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestGormProductRepository_AdjustStockAppendsLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	p := seedProduct(t, db, "10")
	ctx := context.Background()

	newStock, err := repo.AdjustStock(ctx, p.ID, mustDecimal(t, "-3"), string(inventory.ReferenceTypeOrder), "order-1")
	require.NoError(t, err)
	assert.True(t, newStock.Equal(mustDecimal(t, "7")))

	var rows []inventory.Transaction
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, inventory.TransactionTypeSale, rows[0].Type)
	assert.True(t, rows[0].Quantity.Equal(mustDecimal(t, "-3")))
	assert.True(t, rows[0].PreviousStock.Equal(mustDecimal(t, "10")))
	assert.True(t, rows[0].NewStock.Equal(mustDecimal(t, "7")))
	assert.Equal(t, inventory.ReferenceTypeOrder, rows[0].ReferenceType)
	assert.Equal(t, "order-1", rows[0].ReferenceID)
}

func TestGormProductRepository_AdjustStockInsufficient(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	p := seedProduct(t, db, "2")
	ctx := context.Background()

	_, err := repo.AdjustStock(ctx, p.ID, mustDecimal(t, "-5"), string(inventory.ReferenceTypeOrder), "order-1")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	// stock unchanged, no ledger row written
	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(mustDecimal(t, "2")))

	var count int64
	require.NoError(t, db.Model(&inventory.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormProductRepository_AdjustStockToExactlyZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	p := seedProduct(t, db, "5")

	newStock, err := repo.AdjustStock(context.Background(), p.ID, mustDecimal(t, "-5"), string(inventory.ReferenceTypeManual), "shrinkage")
	require.NoError(t, err)
	assert.True(t, newStock.IsZero())
}

func TestGormProductRepository_AdjustStockUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	_, err := repo.AdjustStock(context.Background(), uuid.New(), mustDecimal(t, "1"), string(inventory.ReferenceTypeManual), "x")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_PurchaseReferenceMapsToPurchaseType(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	p := seedProduct(t, db, "0")

	_, err := repo.AdjustStock(context.Background(), p.ID, mustDecimal(t, "12"), string(inventory.ReferenceTypePurchaseReceipt), "receipt-1")
	require.NoError(t, err)

	var row inventory.Transaction
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, inventory.TransactionTypePurchase, row.Type)
}

func TestGormSettingsRepository_DefaultsWhenMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSettingsRepository(db)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.PriceIncludesTax)
	assert.True(t, settings.TaxRate.IsZero())
	assert.Equal(t, int32(0), settings.CurrencyExponent)
}

func TestGormSettingsRepository_ReadsStoredRow(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&catalog.StoreSettings{
		ID:               uuid.New(),
		PriceIncludesTax: true,
		TaxRate:          mustDecimal(t, "0.11"),
		CurrencyExponent: 2,
		UpdatedAt:        time.Now(),
	}).Error)

	settings, err := NewGormSettingsRepository(db).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.PriceIncludesTax)
	assert.True(t, settings.TaxRate.Equal(mustDecimal(t, "0.11")))
	assert.Equal(t, int32(2), settings.CurrencyExponent)
}
