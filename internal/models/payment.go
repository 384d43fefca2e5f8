package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Valid reports whether s is a member of the status enumeration.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// PaymentMethod enumerates how a payment was made.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Valid reports whether m is a member of the method enumeration.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodBankTransfer
}

// Payment settles exactly one order. OrderID carries a uniqueness
// constraint so at most one payment row exists per order; the row is
// cascade-deleted together with its order.
type Payment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"uniqueIndex"`
	UserID     uint            `json:"user_id" gorm:"index"`
	PaymentUID string          `json:"payment_uid" gorm:"uniqueIndex;type:varchar(40)" validate:"required"`
	Method     PaymentMethod   `json:"method" gorm:"type:varchar(20)" validate:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount" gorm:"type:numeric(16,2)"`
	Status     PaymentStatus   `json:"status" gorm:"type:varchar(10)"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
