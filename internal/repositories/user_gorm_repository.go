package repositories

import (
	"errors"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrCustomerNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Mark(err, apperrors.ErrCustomerNotFound)
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return &user, nil
}

func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to update user")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCustomerNotFound
	}
	return nil
}
