package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/ordering"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, status ordering.OrderStatus, tableID *uuid.UUID, itemCount int) *ordering.Order {
	t.Helper()
	now := time.Now()
	order := &ordering.Order{
		ID:            uuid.New(),
		OrderNumber:   fmt.Sprintf("ORD%06d/26", seedSeq()),
		TableID:       tableID,
		Status:        status,
		PaymentStatus: ordering.PaymentStatusUnpaid,
		SalesChannel:  "dine_in",
		OrderedAt:     now,
		UpdatedAt:     now,
	}
	for i := 0; i < itemCount; i++ {
		order.Items = append(order.Items, ordering.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   uuid.New(),
			ProductName: fmt.Sprintf("Item %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			Total:       decimal.NewFromInt(100),
			Status:      ordering.ItemStatusActive,
			CreatedAt:   now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt:   now,
		})
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

var orderSeedCounter int64

func seedSeq() int64 {
	orderSeedCounter++
	return orderSeedCounter
}

func TestGormOrderRepository_FindByIDPreloadsItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	order := seedOrder(t, db, ordering.OrderStatusPending, nil, 2)

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_UpdateFieldsPartialMerge(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	order := seedOrder(t, db, ordering.OrderStatusPending, nil, 1)
	ctx := context.Background()

	err := repo.UpdateFields(ctx, order.ID, map[string]any{"customer_name": "Budi"})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", got.CustomerName)
	// untouched fields survive the merge
	assert.Equal(t, ordering.OrderStatusPending, got.Status)
	assert.Equal(t, "dine_in", got.SalesChannel)

	err = repo.UpdateFields(ctx, uuid.New(), map[string]any{"customer_name": "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_DeleteItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	order := seedOrder(t, db, ordering.OrderStatusPending, nil, 2)
	ctx := context.Background()

	require.NoError(t, repo.DeleteItem(ctx, order.ID, order.Items[0].ID))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	// an item ID from a different order must not delete anything
	other := seedOrder(t, db, ordering.OrderStatusPending, nil, 1)
	err = repo.DeleteItem(ctx, order.ID, other.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_ReassignItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	source := seedOrder(t, db, ordering.OrderStatusPending, nil, 3)
	target := seedOrder(t, db, ordering.OrderStatusPending, nil, 0)
	ctx := context.Background()

	moved := []uuid.UUID{source.Items[0].ID, source.Items[2].ID}
	require.NoError(t, repo.ReassignItems(ctx, source.ID, target.ID, moved))

	gotTarget, err := repo.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, gotTarget.Items, 2)

	gotSource, err := repo.FindByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Len(t, gotSource.Items, 1)

	// a stale item ID makes the whole move fail
	err = repo.ReassignItems(ctx, source.ID, target.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_CountOpenOrdersForTable(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tableID := uuid.New()
	require.NoError(t, db.Create(&ordering.DiningTable{
		ID: tableID, Number: "T1", Status: ordering.TableStatusOccupied, UpdatedAt: time.Now(),
	}).Error)

	settling := seedOrder(t, db, ordering.OrderStatusServed, &tableID, 1)
	seedOrder(t, db, ordering.OrderStatusPreparing, &tableID, 1) // open sibling
	seedOrder(t, db, ordering.OrderStatusPaid, &tableID, 1)      // closed, not counted
	seedOrder(t, db, ordering.OrderStatusCancelled, &tableID, 1) // closed, not counted

	count, err := repo.CountOpenOrdersForTable(ctx, tableID, settling.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormOrderRepository_GenerateOrderNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	first, err := repo.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	year := time.Now().Year() % 100
	assert.Equal(t, fmt.Sprintf("ORD000001/%02d", year), first)

	order := seedOrder(t, db, ordering.OrderStatusPending, nil, 0)
	order.OrderNumber = first
	require.NoError(t, db.Save(order).Error)

	second, err := repo.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ORD000002/%02d", year), second)
}

func TestGormTableRepository_SetStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTableRepository(db)
	ctx := context.Background()

	tableID := uuid.New()
	require.NoError(t, db.Create(&ordering.DiningTable{
		ID: tableID, Number: "T7", Status: ordering.TableStatusAvailable, UpdatedAt: time.Now(),
	}).Error)

	require.NoError(t, repo.SetStatus(ctx, tableID, ordering.TableStatusOccupied))

	var got ordering.DiningTable
	require.NoError(t, db.First(&got, "id = ?", tableID).Error)
	assert.Equal(t, ordering.TableStatusOccupied, got.Status)

	assert.ErrorIs(t, repo.SetStatus(ctx, uuid.New(), ordering.TableStatusAvailable), shared.ErrNotFound)
}
