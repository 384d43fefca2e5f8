package models

import "time"

// User roles. Admins may manage the catalog and browse every order.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User statuses.
const (
	UserActivated = "ACTIVATED"
	UserDeleted   = "DELETED"
)

// User represents a customer of the store.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" validate:"required,min=2,max=100"`
	Email         string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password      string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Address       string    `json:"address" validate:"max=255"`
	DetailAddress string    `json:"detail_address" validate:"max=255"`
	Phone         string    `json:"phone" validate:"max=30"`
	Role          string    `json:"role" gorm:"type:varchar(10);default:USER"`
	Status        string    `json:"status" gorm:"type:varchar(10);default:ACTIVATED"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShippingAddress builds the denormalized address snapshot stored on orders.
func (u *User) ShippingAddress() string {
	if u.DetailAddress == "" {
		return u.Address
	}
	return u.Address + " " + u.DetailAddress
}
