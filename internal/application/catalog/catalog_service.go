package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	domain "github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages products and manual stock adjustments for one
// tenant handle.
type CatalogService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCatalogService creates a catalog service bound to a tenant handle.
func NewCatalogService(db *gorm.DB, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

// AdjustStockRequest applies a signed manual stock correction.
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta" binding:"required"`
	Reason string          `json:"reason"`
}

// AdjustStockResponse reports the stock level after an adjustment.
type AdjustStockResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	NewStock  decimal.Decimal `json:"new_stock"`
}

// AdjustStock applies a manual stock correction. Unlike the sale path this
// is a hard operation: an adjustment that would take stock negative fails
// with ErrInsufficientStock and writes nothing.
func (s *CatalogService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*AdjustStockResponse, error) {
	if req.Delta.IsZero() {
		return nil, shared.ErrInvalidQuantity
	}

	var newStock decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := persistence.NewGormProductRepository(tx)
		product, err := products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !product.TrackInventory {
			return shared.ErrInvalidState
		}
		newStock, err = products.AdjustStock(ctx, productID, req.Delta,
			string(inventory.ReferenceTypeManual), req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AdjustStockResponse{ProductID: productID, NewStock: newStock}, nil
}

// GetProduct loads one product.
func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	return persistence.NewGormProductRepository(s.db).GetProduct(ctx, productID)
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Name           string          `json:"name" binding:"required"`
	CategoryID     *uuid.UUID      `json:"category_id"`
	Price          decimal.Decimal `json:"price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TrackInventory bool            `json:"track_inventory"`
	InitialStock   decimal.Decimal `json:"initial_stock"`
}

// CreateProduct inserts a product, seeding the ledger when it starts with
// stock on hand.
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	if req.InitialStock.IsNegative() {
		return nil, shared.ErrInvalidQuantity
	}

	now := time.Now()
	product := &domain.Product{
		ID:             uuid.New(),
		Name:           req.Name,
		CategoryID:     req.CategoryID,
		Price:          req.Price,
		TaxRate:        req.TaxRate,
		TrackInventory: req.TrackInventory,
		Stock:          decimal.Zero,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := persistence.NewGormProductRepository(tx)
		if err := products.Create(ctx, product); err != nil {
			return err
		}
		if req.TrackInventory && req.InitialStock.IsPositive() {
			stock, err := products.AdjustStock(ctx, product.ID, req.InitialStock,
				string(inventory.ReferenceTypeManual), "initial stock")
			if err != nil {
				return err
			}
			product.Stock = stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}
