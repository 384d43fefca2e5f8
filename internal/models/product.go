package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product. Stock is mutated by catalog
// administration and by the reservation protocol (decrement on reserve,
// increment on release); the decrement is always conditional on
// stock >= quantity at the store level.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(16,2)" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Active      bool            `json:"active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
