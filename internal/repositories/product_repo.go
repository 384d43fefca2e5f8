package repositories

import "pasar/internal/models"

// ProductRepository defines the interface for catalog data access,
// including the atomic stock operations the reservation protocol relies on.
type ProductRepository interface {
	GetAll(activeOnly bool) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	Deactivate(id uint) error

	// DecrementStock subtracts qty conditioned on stock >= qty in a single
	// store-level compare-and-update. It fails with ErrInsufficientStock
	// when the condition does not hold; in-process locks alone are not the
	// safety net, the store's atomicity is.
	DecrementStock(id uint, qty int) error

	// IncrementStock credits qty back, used by expiry and cancellation.
	IncrementStock(id uint, qty int) error
}
