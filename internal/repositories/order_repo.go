package repositories

import "pasar/internal/models"

// OrderRepository defines the interface for order data access. Orders own
// their lines exclusively: deleting an order removes every line (and any
// payment) referencing it.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(number string) (*models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	GetByUserIDAndStatus(userID uint, status models.OrderStatus) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	GetPage(page, size int) ([]models.Order, int64, error)
	UpdateStatus(id uint, status models.OrderStatus) error
	DeleteByID(id uint) error
	DeleteByOrderNumber(number string) error
	ExistsByOrderNumber(number string) (bool, error)
	ExistsLineByProductID(productID uint) (bool, error)
}
