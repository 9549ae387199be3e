package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReceiptRepository implements purchase receipt persistence using GORM.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a purchase receipt with its items
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseReceipt, error) {
	var receipt purchasing.PurchaseReceipt
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByIDForUpdate loads a receipt with its items under row lock so
// concurrent receiving batches on the same receipt serialize.
func (r *GormReceiptRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseReceipt, error) {
	var receipt purchasing.PurchaseReceipt
	if err := lockForUpdate(r.db.WithContext(ctx)).
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("purchase_receipt_id = ?", id).
		Order("created_at asc").
		Find(&receipt.Items).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Create inserts the receipt and all its items
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *purchasing.PurchaseReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

// Save persists the receipt header and every item
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *purchasing.PurchaseReceipt) error {
	receipt.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Omit("Items").Save(receipt).Error; err != nil {
		return err
	}
	for i := range receipt.Items {
		if err := r.db.WithContext(ctx).Save(&receipt.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// GenerateReceiptNumber generates the next receipt number.
// Format: PN{6-digit sequence}/{2-digit year}. The next sequence is the
// highest existing sequence for the current year plus one; numbers from
// other years are ignored, so sequences restart each January. The DESC
// scan finds the numeric max because the sequence is zero-padded to a
// fixed six digits.
func (r *GormReceiptRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	suffix := purchasing.ReceiptNumberSuffix(year)

	var last purchasing.PurchaseReceipt
	err := r.db.WithContext(ctx).Model(&purchasing.PurchaseReceipt{}).
		Where("receipt_number LIKE ?", "PN%"+suffix).
		Order("receipt_number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var next int64 = 1
	if err == nil {
		if seq := purchasing.ParseReceiptSequence(last.ReceiptNumber); seq > 0 {
			next = seq + 1
		}
	}
	return purchasing.FormatReceiptNumber(next, year), nil
}
