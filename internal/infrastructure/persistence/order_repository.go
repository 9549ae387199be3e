package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/ordering"
	"github.com/pos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements order persistence using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads an order with its items under row lock. Two
// concurrent recalculations on the same order serialize on this lock so
// the proportional discount allocation cannot be lost to a concurrent
// writer.
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := lockForUpdate(r.db.WithContext(ctx)).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("created_at asc").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order and all its items in one statement batch
func (r *GormOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Save persists the order header and every item
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	order.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Omit("Items").Save(order).Error; err != nil {
		return err
	}
	for i := range order.Items {
		if err := r.db.WithContext(ctx).Save(&order.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateFields merges a partial field map onto the order row. Fields not in
// the map are preserved.
func (r *GormOrderRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&ordering.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteItem removes one item row from an order
func (r *GormOrderRepository) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Delete(&ordering.OrderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReassignItems moves the given items to another order
func (r *GormOrderRepository) ReassignItems(ctx context.Context, fromOrderID, toOrderID uuid.UUID, itemIDs []uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&ordering.OrderItem{}).
		Where("order_id = ? AND id IN ?", fromOrderID, itemIDs).
		Updates(map[string]any{"order_id": toOrderID, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(itemIDs)) {
		return shared.ErrNotFound
	}
	return nil
}

// CountOpenOrdersForTable counts sibling orders on a table that still keep
// it occupied, excluding the order being settled. Callers run this inside
// the same transaction as the status write so a concurrently created
// sibling is not missed.
func (r *GormOrderRepository) CountOpenOrdersForTable(ctx context.Context, tableID, excludeOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ordering.Order{}).
		Where("table_id = ? AND id <> ? AND status IN ?", tableID, excludeOrderID, []ordering.OrderStatus{
			ordering.OrderStatusPending,
			ordering.OrderStatusConfirmed,
			ordering.OrderStatusPreparing,
			ordering.OrderStatusReady,
			ordering.OrderStatusServed,
		}).
		Count(&count).Error
	return count, err
}

// GenerateOrderNumber generates the next order number.
// Format: ORD{6-digit sequence}/{2-digit year}; sequences restart each year.
// The DESC scan finds the numeric max because the sequence is zero-padded
// to a fixed six digits.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	suffix := fmt.Sprintf("/%02d", year%100)

	var last ordering.Order
	err := r.db.WithContext(ctx).Model(&ordering.Order{}).
		Where("order_number LIKE ?", "ORD%"+suffix).
		Order("order_number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var next int64 = 1
	if err == nil && last.OrderNumber != "" {
		rest := strings.TrimPrefix(last.OrderNumber, "ORD")
		if slash := strings.Index(rest, "/"); slash > 0 {
			var seq int64
			if _, parseErr := fmt.Sscanf(rest[:slash], "%d", &seq); parseErr == nil {
				next = seq + 1
			}
		}
	}
	return fmt.Sprintf("ORD%06d%s", next, suffix), nil
}

// GormTableRepository persists dining tables.
type GormTableRepository struct {
	db *gorm.DB
}

// NewGormTableRepository creates a new GormTableRepository
func NewGormTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

// SetStatus updates a table's occupancy status
func (r *GormTableRepository) SetStatus(ctx context.Context, tableID uuid.UUID, status ordering.TableStatus) error {
	res := r.db.WithContext(ctx).Model(&ordering.DiningTable{}).
		Where("id = ?", tableID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
