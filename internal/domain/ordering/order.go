package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusServed, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses where settlement recomputation is
// skipped. Downstream bookkeeping may still write to a terminal order.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// IsOpen returns true for statuses that keep a table occupied.
func (s OrderStatus) IsOpen() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusServed:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// The kitchen pipeline only moves forward; any non-terminal status may be
// cancelled; only a served order can be paid.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	rank := map[OrderStatus]int{
		OrderStatusPending:   0,
		OrderStatusConfirmed: 1,
		OrderStatusPreparing: 2,
		OrderStatusReady:     3,
		OrderStatusServed:    4,
	}
	if target == OrderStatusPaid {
		return s == OrderStatusServed
	}
	tr, ok := rank[target]
	if !ok {
		return false
	}
	return tr > rank[s]
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ItemStatus represents the status of an order line
type ItemStatus string

const (
	ItemStatusActive ItemStatus = "active"
	ItemStatusVoided ItemStatus = "voided"
)

// OrderItem is one line of an order. Total always equals
// PriceBeforeTax + Tax after settlement.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Tax            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PriceBeforeTax decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status         ItemStatus      `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// GrossSubtotal returns UnitPrice * Quantity before any discount or tax.
func (i *OrderItem) GrossSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(i.Quantity)
}

// Order is the sales document the settlement engine operates on.
// Invariant after any settlement operation: Total == Subtotal + Tax where
// Subtotal is post-discount pre-tax, and Discount equals the sum of the
// per-item discounts.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	TableID         *uuid.UUID      `gorm:"type:uuid;index"`
	EmployeeID      *uuid.UUID      `gorm:"type:uuid"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerName    string          `gorm:"type:varchar(200)"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Tax             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Discount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod   string          `gorm:"type:varchar(50)"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'"`
	IsPaid          bool            `gorm:"not null;default:false"`
	SalesChannel    string          `gorm:"type:varchar(50);not null;default:'dine_in'"`
	PriceIncludeTax bool            `gorm:"not null;default:false"`
	OrderedAt       time.Time       `gorm:"not null"`
	PaidAt          *time.Time
	UpdatedAt       time.Time   `gorm:"not null"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// ActiveItems returns the non-voided items of the order.
func (o *Order) ActiveItems() []OrderItem {
	out := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Status != ItemStatusVoided {
			out = append(out, it)
		}
	}
	return out
}

// MarkPaid flips the payment fields and stamps PaidAt.
func (o *Order) MarkPaid(method string, at time.Time) {
	o.Status = OrderStatusPaid
	o.PaymentStatus = PaymentStatusPaid
	o.IsPaid = true
	if method != "" {
		o.PaymentMethod = method
	}
	o.PaidAt = &at
	o.UpdatedAt = at
}

// DiningTable is a physical table in the restaurant.
type DiningTable struct {
	ID        uuid.UUID   `gorm:"type:uuid;primary_key"`
	Number    string      `gorm:"type:varchar(20);not null;uniqueIndex"`
	Status    TableStatus `gorm:"type:varchar(20);not null;default:'available'"`
	UpdatedAt time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DiningTable) TableName() string {
	return "dining_tables"
}

// TableStatus represents the occupancy state of a dining table
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
)
