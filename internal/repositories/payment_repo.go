package repositories

import "pasar/internal/models"

// PaymentRepository defines the interface for payment data access. The
// store enforces uniqueness on both PaymentUID and OrderID.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByUID(uid string) (*models.Payment, error)
	GetByOrderID(orderID uint) (*models.Payment, error)
	GetByUserID(userID uint) ([]models.Payment, error)
	GetByUserIDAndStatus(userID uint, status models.PaymentStatus) ([]models.Payment, error)
	UpdateStatus(id uint, status models.PaymentStatus) error
	DeleteByID(id uint) error
	DeleteByUID(uid string) error
	ExistsByUID(uid string) (bool, error)
	ExistsByOrderID(orderID uint) (bool, error)
}
