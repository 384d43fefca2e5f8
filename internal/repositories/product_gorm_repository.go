package repositories

import (
	"errors"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{db: db}
}

func (r *GORMProductRepository) GetAll(activeOnly bool) ([]models.Product, error) {
	var products []models.Product
	q := r.db
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to get all products")
	}
	return products, nil
}

func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrProductNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get product by id")
	}
	return &product, nil
}

func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return apperrors.Wrap(err, "failed to create product")
	}
	return nil
}

func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to update product")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to delete product")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

func (r *GORMProductRepository) Deactivate(id uint) error {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to deactivate product")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

// DecrementStock runs the conditional decrement as one UPDATE guarded by
// the store's concurrency control. RowsAffected == 0 means the stock
// condition failed (or the product is gone), never a partial write.
func (r *GORMProductRepository) DecrementStock(id uint, qty int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to decrement stock")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "failed to check product existence")
		}
		if count == 0 {
			return apperrors.ErrProductNotFound
		}
		return apperrors.ErrInsufficientStock
	}
	return nil
}

func (r *GORMProductRepository) IncrementStock(id uint, qty int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to increment stock")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}
