package ordering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	domain "github.com/pos/backend/internal/domain/ordering"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementService is the order settlement engine. It computes and
// recomputes order and order-line monetary fields and drives stock
// deduction. A service instance is bound to one tenant handle for the
// duration of a request.
type SettlementService struct {
	db       *gorm.DB
	log      *zap.Logger
	settings catalog.SettingsProvider
}

// NewSettlementService creates a settlement engine bound to a tenant handle.
func NewSettlementService(db *gorm.DB, log *zap.Logger) *SettlementService {
	return &SettlementService{
		db:       db,
		log:      log,
		settings: persistence.NewGormSettingsRepository(db),
	}
}

// WithSettingsProvider overrides the settings source, e.g. with the cached
// provider.
func (s *SettlementService) WithSettingsProvider(p catalog.SettingsProvider) *SettlementService {
	s.settings = p
	return s
}

// CreateOrder persists the order and its items in one atomic unit, runs the
// initial settlement pass, and deducts stock for every item whose product
// tracks inventory. Stock shortfall at sale time is a soft constraint: it
// is logged and the sale completes.
func (s *SettlementService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	orderNumber := req.OrderNumber
	if orderNumber == "" {
		orderNumber, err = persistence.NewGormOrderRepository(s.db).GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		TableID:         req.TableID,
		EmployeeID:      req.EmployeeID,
		Status:          domain.OrderStatusPending,
		CustomerName:    req.CustomerName,
		Discount:        req.Discount,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		SalesChannel:    req.SalesChannel,
		PriceIncludeTax: settings.PriceIncludesTax,
		OrderedAt:       now,
		UpdatedAt:       now,
	}
	if order.SalesChannel == "" {
		order.SalesChannel = "dine_in"
	}

	for _, ir := range req.Items {
		total := ir.Total
		if total.IsZero() {
			total = ir.UnitPrice.Mul(ir.Quantity)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   ir.ProductID,
			ProductName: ir.ProductName,
			Quantity:    ir.Quantity,
			UnitPrice:   ir.UnitPrice,
			Total:       total,
			Status:      domain.ItemStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := persistence.NewGormProductRepository(tx)

		if err := s.settleLocked(ctx, tx, order, settings); err != nil {
			return err
		}
		if err := persistence.NewGormOrderRepository(tx).Create(ctx, order); err != nil {
			return err
		}
		if order.TableID != nil {
			if err := persistence.NewGormTableRepository(tx).SetStatus(ctx, *order.TableID, domain.TableStatusOccupied); err != nil && err != shared.ErrNotFound {
				return err
			}
		}
		for i := range order.Items {
			s.deductStockSoft(ctx, products, &order.Items[i], order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

// deductStockSoft deducts stock for one sold line when the product tracks
// inventory. Shortfall and missing products are warned, never fatal: the
// platform prioritizes completing the sale over strict stock enforcement.
func (s *SettlementService) deductStockSoft(ctx context.Context, products *persistence.GormProductRepository, item *domain.OrderItem, orderID uuid.UUID) {
	product, err := products.GetProduct(ctx, item.ProductID)
	if err != nil {
		s.log.Warn("stock deduction skipped: product not found",
			zap.String("product_id", item.ProductID.String()),
			zap.String("order_id", orderID.String()))
		return
	}
	if !product.TrackInventory {
		return
	}
	_, err = products.AdjustStock(ctx, item.ProductID, item.Quantity.Neg(),
		string(inventory.ReferenceTypeOrder), orderID.String())
	if err != nil {
		s.log.Warn("stock deduction failed",
			zap.String("product_id", item.ProductID.String()),
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// Recalculate is the idempotent recomputation entry point, invoked after
// structural edits. The order row is locked for the duration of the
// transaction so concurrent recalculations serialize; the last writer's
// recomputation is authoritative.
func (s *SettlementService) Recalculate(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = persistence.NewGormOrderRepository(tx).FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		return s.recalculateLocked(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// recalculateLocked recomputes a loaded, locked order and persists it.
// Terminal orders are returned untouched; an order left with zero items is
// cancelled with zeroed aggregates, since an order cannot exist without
// items.
func (s *SettlementService) recalculateLocked(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	if order.Status.IsTerminal() {
		return nil
	}

	active := order.ActiveItems()
	if len(active) == 0 {
		order.Status = domain.OrderStatusCancelled
		order.Subtotal = decimal.Zero
		order.Tax = decimal.Zero
		order.Discount = decimal.Zero
		order.Total = decimal.Zero
		return persistence.NewGormOrderRepository(tx).Save(ctx, order)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	return s.settleAndSave(ctx, tx, order, settings)
}

// settleLocked runs the settlement math over an in-memory order without
// persisting it (used at creation, before the first insert).
func (s *SettlementService) settleLocked(ctx context.Context, tx *gorm.DB, order *domain.Order, settings *catalog.StoreSettings) error {
	rates, err := s.taxRates(ctx, tx, order, settings)
	if err != nil {
		return err
	}
	applySettlement(order, rates, settings)
	return nil
}

func (s *SettlementService) settleAndSave(ctx context.Context, tx *gorm.DB, order *domain.Order, settings *catalog.StoreSettings) error {
	if err := s.settleLocked(ctx, tx, order, settings); err != nil {
		return err
	}
	return persistence.NewGormOrderRepository(tx).Save(ctx, order)
}

// taxRates resolves the tax rate per active item: the product's rate, or
// the store default when the product is gone.
func (s *SettlementService) taxRates(ctx context.Context, tx *gorm.DB, order *domain.Order, settings *catalog.StoreSettings) ([]decimal.Decimal, error) {
	products := persistence.NewGormProductRepository(tx)
	rates := make([]decimal.Decimal, 0, len(order.Items))
	for i := range order.Items {
		if order.Items[i].Status == domain.ItemStatusVoided {
			continue
		}
		product, err := products.GetProduct(ctx, order.Items[i].ProductID)
		if err == shared.ErrNotFound {
			rates = append(rates, settings.TaxRate)
			continue
		}
		if err != nil {
			return nil, err
		}
		rates = append(rates, product.TaxRate)
	}
	return rates, nil
}

// applySettlement runs the proportional-discount + tax algorithm over the
// order's active items and writes the settled figures back onto the
// aggregate.
func applySettlement(order *domain.Order, rates []decimal.Decimal, settings *catalog.StoreSettings) {
	subtotals := make([]decimal.Decimal, 0, len(order.Items))
	idx := make([]int, 0, len(order.Items))
	for i := range order.Items {
		if order.Items[i].Status == domain.ItemStatusVoided {
			continue
		}
		subtotals = append(subtotals, order.Items[i].GrossSubtotal())
		idx = append(idx, i)
	}

	result := domain.Settle(order.Discount, subtotals, rates, settings.PriceIncludesTax, settings.CurrencyExponent)

	now := time.Now()
	for n, i := range idx {
		line := result.Lines[n]
		order.Items[i].Discount = line.Discount
		order.Items[i].PriceBeforeTax = line.PriceBeforeTax
		order.Items[i].Tax = line.Tax
		order.Items[i].Total = line.Total
		order.Items[i].UpdatedAt = now
	}
	order.Subtotal = result.Subtotal
	order.Tax = result.Tax
	order.Discount = result.Discount
	order.Total = result.Total
	order.PriceIncludeTax = settings.PriceIncludesTax
	order.UpdatedAt = now
}

// UpdateOrder merges the supplied fields onto the order row. It does not
// re-run the discount distribution; callers that change the discount or
// items must invoke Recalculate separately.
func (s *SettlementService) UpdateOrder(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	fields := map[string]any{}
	if req.CustomerName != nil {
		fields["customer_name"] = *req.CustomerName
	}
	if req.Discount != nil {
		fields["discount"] = *req.Discount
	}
	if req.PaymentMethod != nil {
		fields["payment_method"] = *req.PaymentMethod
	}
	if req.SalesChannel != nil {
		fields["sales_channel"] = *req.SalesChannel
	}
	if req.TableID != nil {
		fields["table_id"] = *req.TableID
	}

	repo := persistence.NewGormOrderRepository(s.db)
	if len(fields) > 0 {
		if err := repo.UpdateFields(ctx, orderID, fields); err != nil {
			return nil, err
		}
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// UpdateStatus drives the order state machine. A transition to paid stamps
// paidAt and, when the order sits on a table, releases the table iff no
// sibling order on it is still open. The sibling scan runs inside the same
// transaction as the status write so a concurrently created order cannot
// be missed.
func (s *SettlementService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	if !req.Status.IsValid() {
		return nil, shared.ErrInvalidInput
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormOrderRepository(tx)
		var err error
		order, err = repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(req.Status) {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, req.Status))
		}

		now := time.Now()
		if req.Status == domain.OrderStatusPaid {
			order.MarkPaid(req.PaymentMethod, now)
		} else {
			order.Status = req.Status
			order.UpdatedAt = now
		}
		if err := repo.Save(ctx, order); err != nil {
			return err
		}

		if req.Status.IsTerminal() && order.TableID != nil {
			open, err := repo.CountOpenOrdersForTable(ctx, *order.TableID, order.ID)
			if err != nil {
				return err
			}
			if open == 0 {
				if err := persistence.NewGormTableRepository(tx).SetStatus(ctx, *order.TableID, domain.TableStatusAvailable); err != nil && err != shared.ErrNotFound {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// RemoveItem deletes one line from an order and recomputes the settlement
// in the same transaction.
func (s *SettlementService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormOrderRepository(tx)
		var err error
		order, err = repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return shared.ErrInvalidState
		}
		if err := repo.DeleteItem(ctx, orderID, itemID); err != nil {
			return err
		}
		order, err = repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		return s.recalculateLocked(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// UpdateItemQuantity changes one line's quantity and recomputes the
// settlement in the same transaction.
func (s *SettlementService) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*OrderResponse, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormOrderRepository(tx)
		var err error
		order, err = repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return shared.ErrInvalidState
		}

		found := false
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				order.Items[i].Quantity = quantity
				order.Items[i].Total = order.Items[i].UnitPrice.Mul(quantity)
				order.Items[i].UpdatedAt = time.Now()
				found = true
				break
			}
		}
		if !found {
			return shared.ErrNotFound
		}
		return s.recalculateLocked(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// SplitOrder moves the given items to a fresh order on the same table and
// recomputes both orders in one transaction. The source keeps the header
// discount; the new order starts with none.
func (s *SettlementService) SplitOrder(ctx context.Context, orderID uuid.UUID, req SplitOrderRequest) (*OrderResponse, *OrderResponse, error) {
	if len(req.ItemIDs) == 0 {
		return nil, nil, shared.ErrInvalidInput
	}

	var source, split *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := persistence.NewGormOrderRepository(tx)
		var err error
		source, err = repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if source.Status.IsTerminal() {
			return shared.ErrInvalidState
		}
		if len(req.ItemIDs) >= len(source.ActiveItems()) {
			return shared.NewDomainError("INVALID_INPUT", "cannot split away every item of an order")
		}

		number, err := repo.GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		split = &domain.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			TableID:         source.TableID,
			EmployeeID:      source.EmployeeID,
			Status:          domain.OrderStatusPending,
			CustomerName:    source.CustomerName,
			PaymentStatus:   domain.PaymentStatusUnpaid,
			SalesChannel:    source.SalesChannel,
			PriceIncludeTax: source.PriceIncludeTax,
			OrderedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.Create(ctx, split); err != nil {
			return err
		}
		if err := repo.ReassignItems(ctx, source.ID, split.ID, req.ItemIDs); err != nil {
			return err
		}

		source, err = repo.FindByIDForUpdate(ctx, source.ID)
		if err != nil {
			return err
		}
		if err := s.recalculateLocked(ctx, tx, source); err != nil {
			return err
		}
		split, err = repo.FindByIDForUpdate(ctx, split.ID)
		if err != nil {
			return err
		}
		return s.recalculateLocked(ctx, tx, split)
	})
	if err != nil {
		return nil, nil, err
	}
	sourceResp := ToOrderResponse(source)
	splitResp := ToOrderResponse(split)
	return &sourceResp, &splitResp, nil
}

// GetOrder loads one order with its items.
func (s *SettlementService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := persistence.NewGormOrderRepository(s.db).FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}
