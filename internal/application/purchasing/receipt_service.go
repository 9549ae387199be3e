package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/inventory"
	domain "github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReceiptService is the purchase receipt engine: it creates receipts and
// records receiving batches. Unlike the sale path, receiving is a hard
// constraint domain: any invalid line fails the whole batch and nothing
// is persisted.
type ReceiptService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewReceiptService creates a receipt engine bound to a tenant handle.
func NewReceiptService(db *gorm.DB, log *zap.Logger) *ReceiptService {
	return &ReceiptService{db: db, log: log}
}

// CreateReceipt persists a pending receipt with its items. Every item
// starts with zero received quantity; stock is untouched until receiving.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*ReceiptResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput
	}
	for _, ir := range req.Items {
		if ir.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.ErrInvalidQuantity
		}
	}

	var receipt *domain.PurchaseReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormReceiptRepository(tx)
		number, err := repo.GenerateReceiptNumber(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		receipt = &domain.PurchaseReceipt{
			ID:            uuid.New(),
			ReceiptNumber: number,
			SupplierID:    req.SupplierID,
			Status:        domain.ReceiptStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		subtotal := decimal.Zero
		for _, ir := range req.Items {
			total := ir.UnitPrice.Mul(ir.Quantity)
			receipt.Items = append(receipt.Items, domain.ReceiptItem{
				ID:                uuid.New(),
				PurchaseReceiptID: receipt.ID,
				ProductID:         ir.ProductID,
				Description:       ir.Description,
				Quantity:          ir.Quantity,
				ReceivedQuantity:  decimal.Zero,
				UnitPrice:         ir.UnitPrice,
				Total:             total,
				CreatedAt:         now,
				UpdatedAt:         now,
			})
			subtotal = subtotal.Add(total)
		}
		receipt.Subtotal = subtotal
		receipt.Total = subtotal

		return repo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// ReceiveItems records one receiving batch in a single transaction: it
// validates every line, moves each item's cumulative received quantity,
// increments stock for product-backed lines, and re-derives the receipt
// status. Any invalid line (unknown item ID, quantity outside [0, ordered])
// rolls the whole batch back.
func (s *ReceiptService) ReceiveItems(ctx context.Context, receiptID uuid.UUID, req ReceiveItemsRequest) (*ReceiptResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput
	}

	var receipt *domain.PurchaseReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormReceiptRepository(tx)
		var err error
		receipt, err = repo.FindByIDForUpdate(ctx, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status == domain.ReceiptStatusCancelled {
			return shared.ErrInvalidState
		}

		// Validate the full batch before mutating anything. An item ID
		// belonging to a different receipt is indistinguishable from a
		// nonexistent one.
		for _, line := range req.Items {
			if receipt.FindItem(line.ItemID) == nil {
				return shared.ErrNotFound
			}
		}

		products := persistence.NewGormProductRepository(tx)
		for _, line := range req.Items {
			item := receipt.FindItem(line.ItemID)
			previous := item.ReceivedQuantity
			if err := item.SetReceivedQuantity(line.ReceivedQuantity); err != nil {
				return err
			}
			delta := item.ReceivedQuantity.Sub(previous)
			if delta.IsZero() || item.ProductID == nil {
				continue
			}
			if err := s.stockIn(ctx, products, item, delta, receipt.ID); err != nil {
				return err
			}
		}

		receipt.Status = receipt.DeriveStatus()
		return repo.Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// stockIn applies a received-quantity delta to the backing product's stock
// and its inventory ledger. Lines whose product does not track inventory
// still settle the receipt but leave stock untouched; a deleted product
// fails the batch.
func (s *ReceiptService) stockIn(ctx context.Context, products *persistence.GormProductRepository, item *domain.ReceiptItem, delta decimal.Decimal, receiptID uuid.UUID) error {
	product, err := products.GetProduct(ctx, *item.ProductID)
	if err != nil {
		return err
	}
	if !product.TrackInventory {
		return nil
	}
	_, err = products.AdjustStock(ctx, *item.ProductID, delta,
		string(inventory.ReferenceTypePurchaseReceipt), receiptID.String())
	return err
}

// CancelReceipt marks a receipt cancelled. Receipts with received stock
// cannot be cancelled; correct them with a manual stock adjustment instead.
func (s *ReceiptService) CancelReceipt(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	var receipt *domain.PurchaseReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormReceiptRepository(tx)
		var err error
		receipt, err = repo.FindByIDForUpdate(ctx, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status != domain.ReceiptStatusPending {
			return shared.ErrInvalidState
		}
		receipt.Status = domain.ReceiptStatusCancelled
		return repo.Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// GetReceipt loads one receipt with its items.
func (s *ReceiptService) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := persistence.NewGormReceiptRepository(s.db).FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}
