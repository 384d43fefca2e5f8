package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the delivery lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
)

// Valid reports whether s is a member of the status enumeration.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOrdered, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo enforces the order state machine:
// ORDERED -> {SHIPPED, CANCELLED, EXPIRED}, SHIPPED -> DELIVERED,
// everything else is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusOrdered:
		return next == OrderStatusShipped || next == OrderStatusCancelled || next == OrderStatusExpired
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// Order represents a customer order. TotalPrice is computed once at
// creation from the line price snapshots and is never recomputed from
// current catalog prices.
type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index"`
	OrderNumber   string          `json:"order_number" gorm:"uniqueIndex;type:varchar(30)"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price" gorm:"type:numeric(16,2)"`
	Address       string          `json:"address"` // shipping address snapshot, not a reference
	Status        OrderStatus     `json:"status" gorm:"type:varchar(10)"`
	Lines         []OrderLine     `json:"lines" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderLine is one product position within an order. UnitPrice is the
// catalog price captured at order time; later catalog price changes must
// not alter it.
type OrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index"`
	ProductID uint            `json:"product_id" gorm:"index"`
	Quantity  int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(16,2)"`
	LineTotal decimal.Decimal `json:"line_total" gorm:"type:numeric(16,2)"`
}
