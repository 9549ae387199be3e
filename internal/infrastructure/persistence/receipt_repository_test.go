package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func seedReceipt(t *testing.T, db *gorm.DB, number string, itemCount int) *purchasing.PurchaseReceipt {
	t.Helper()
	now := time.Now()
	receipt := &purchasing.PurchaseReceipt{
		ID:            uuid.New(),
		ReceiptNumber: number,
		SupplierID:    uuid.New(),
		Status:        purchasing.ReceiptStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := 0; i < itemCount; i++ {
		pid := uuid.New()
		receipt.Items = append(receipt.Items, purchasing.ReceiptItem{
			ID:                uuid.New(),
			PurchaseReceiptID: receipt.ID,
			ProductID:         &pid,
			Quantity:          decimal.NewFromInt(10),
			UnitPrice:         decimal.NewFromInt(5000),
			Total:             decimal.NewFromInt(50000),
			CreatedAt:         now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt:         now,
		})
	}
	require.NoError(t, db.Create(receipt).Error)
	return receipt
}

func TestGormReceiptRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReceiptRepository(db)
	receipt := seedReceipt(t, db, "PN000001/26", 2)

	got, err := repo.FindByID(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormReceiptRepository_GenerateReceiptNumberSequence(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReceiptRepository(db)
	ctx := context.Background()
	year := time.Now().Year() % 100

	first, err := repo.GenerateReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PN000001/%02d", year), first)

	seedReceipt(t, db, first, 0)

	second, err := repo.GenerateReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PN000002/%02d", year), second)
}

func TestGormReceiptRepository_GenerateReceiptNumberIgnoresOtherYears(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReceiptRepository(db)
	year := time.Now().Year() % 100

	// a high sequence from a previous year must not leak into this year
	seedReceipt(t, db, fmt.Sprintf("PN000500/%02d", (year+99)%100), 0)

	number, err := repo.GenerateReceiptNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PN000001/%02d", year), number)
}

// TestGormReceiptRepository_GenerateReceiptNumberQuery pins the SQL the
// generator issues against a real postgres dialect: a year-suffix LIKE scan
// ordered descending, so the scan stays on the receipt_number index.
func TestGormReceiptRepository_GenerateReceiptNumberQuery(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	year := time.Now().Year() % 100
	mock.ExpectQuery(`SELECT .* FROM "purchase_receipts" WHERE receipt_number LIKE .* ORDER BY receipt_number DESC`).
		WithArgs(fmt.Sprintf("PN%%/%02d", year), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "receipt_number"}).
			AddRow(uuid.New().String(), fmt.Sprintf("PN000041/%02d", year)))

	number, err := NewGormReceiptRepository(db).GenerateReceiptNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PN000042/%02d", year), number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReceiptRepository_SavePersistsItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReceiptRepository(db)
	receipt := seedReceipt(t, db, "PN000009/26", 1)
	ctx := context.Background()

	receipt.Items[0].ReceivedQuantity = decimal.NewFromInt(4)
	receipt.Status = purchasing.ReceiptStatusPartiallyReceived
	require.NoError(t, repo.Save(ctx, receipt))

	got, err := repo.FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.ReceiptStatusPartiallyReceived, got.Status)
	assert.True(t, got.Items[0].ReceivedQuantity.Equal(decimal.NewFromInt(4)))
}
