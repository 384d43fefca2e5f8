package repositories

import (
	"errors"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) Create(order *models.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrOrderNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}
	return &order, nil
}

func (r *GORMOrderRepository) GetByOrderNumber(number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Lines").First(&order, "order_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrOrderNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get order by order number")
	}
	return &order, nil
}

func (r *GORMOrderRepository) GetByUserID(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Lines").Where("user_id = ?", userID).Order("id").Find(&orders).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to get orders by user id")
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetByUserIDAndStatus(userID uint, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").
		Where("user_id = ? AND status = ?", userID, status).
		Order("id").Find(&orders).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get orders by user id and status")
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Lines").Order("id").Find(&orders).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to get all orders")
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetPage(page, size int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	var total int64
	if err := r.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to count orders")
	}
	var orders []models.Order
	err := r.db.Preload("Lines").
		Order("id desc").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to get order page")
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) UpdateStatus(id uint, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to update order status")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

// DeleteByID removes the order together with its lines and payment. The
// contract is that no OrderLine referencing the order survives; cleanup is
// done explicitly rather than leaning on database-level cascade so the
// behavior is identical across drivers.
func (r *GORMOrderRepository) DeleteByID(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return apperrors.Wrap(res.Error, "failed to delete order")
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrOrderNotFound
		}
		if err := tx.Delete(&models.OrderLine{}, "order_id = ?", id).Error; err != nil {
			return apperrors.Wrap(err, "failed to delete order lines")
		}
		if err := tx.Delete(&models.Payment{}, "order_id = ?", id).Error; err != nil {
			return apperrors.Wrap(err, "failed to delete order payment")
		}
		return nil
	})
}

func (r *GORMOrderRepository) DeleteByOrderNumber(number string) error {
	order, err := r.GetByOrderNumber(number)
	if err != nil {
		return err
	}
	return r.DeleteByID(order.ID)
}

func (r *GORMOrderRepository) ExistsByOrderNumber(number string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "failed to check order number")
	}
	return count > 0, nil
}

func (r *GORMOrderRepository) ExistsLineByProductID(productID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.OrderLine{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "failed to check order lines for product")
	}
	return count > 0, nil
}
