package repositories

import (
	"errors"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

func (r *GORMPaymentRepository) Create(payment *models.Payment) error {
	if err := r.db.Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Mark(err, apperrors.ErrPaymentUIDConflict)
		}
		return apperrors.Wrap(err, "failed to create payment")
	}
	return nil
}

func (r *GORMPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrPaymentNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get payment by id")
	}
	return &payment, nil
}

func (r *GORMPaymentRepository) GetByUID(uid string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "payment_uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrPaymentNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get payment by uid")
	}
	return &payment, nil
}

func (r *GORMPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrPaymentNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get payment by order id")
	}
	return &payment, nil
}

func (r *GORMPaymentRepository) GetByUserID(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to get payments by user id")
	}
	return payments, nil
}

func (r *GORMPaymentRepository) GetByUserIDAndStatus(userID uint, status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ? AND status = ?", userID, status).Order("id").Find(&payments).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get payments by user id and status")
	}
	return payments, nil
}

func (r *GORMPaymentRepository) UpdateStatus(id uint, status models.PaymentStatus) error {
	res := r.db.Model(&models.Payment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to update payment status")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

func (r *GORMPaymentRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to delete payment")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

func (r *GORMPaymentRepository) DeleteByUID(uid string) error {
	res := r.db.Delete(&models.Payment{}, "payment_uid = ?", uid)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to delete payment by uid")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

func (r *GORMPaymentRepository) ExistsByUID(uid string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Payment{}).Where("payment_uid = ?", uid).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "failed to check payment uid")
	}
	return count > 0, nil
}

func (r *GORMPaymentRepository) ExistsByOrderID(orderID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "failed to check payment for order")
	}
	return count > 0, nil
}
