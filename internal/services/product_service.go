package services

import (
	"pasar/internal/apperrors"
	"pasar/internal/models"
	"pasar/internal/repositories"
)

// ProductService manages the catalog.
type ProductService struct {
	uow repositories.UnitOfWork
}

// NewProductService creates a new ProductService.
func NewProductService(uow repositories.UnitOfWork) *ProductService {
	return &ProductService{uow: uow}
}

// GetAllProducts lists the catalog. Customers see active products only;
// administrators pass activeOnly == false to include deactivated ones.
func (s *ProductService) GetAllProducts(activeOnly bool) ([]models.Product, error) {
	return s.uow.Products().GetAll(activeOnly)
}

// GetProductByID retrieves a single product.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.uow.Products().GetByID(id)
}

// CreateProduct adds a product to the catalog.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Stock < 0 || product.Price.IsNegative() {
		return apperrors.ErrInvalidInput
	}
	product.Active = true
	return s.uow.Products().Create(product)
}

// UpdateProduct replaces a product's catalog fields.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if product.Stock < 0 || product.Price.IsNegative() {
		return apperrors.ErrInvalidInput
	}
	if _, err := s.uow.Products().GetByID(product.ID); err != nil {
		return err
	}
	return s.uow.Products().Update(product)
}

// DeleteProduct removes a product from the catalog. Products referenced by
// order lines are deactivated instead of deleted so historical orders keep
// a valid product reference.
func (s *ProductService) DeleteProduct(id uint) error {
	return s.uow.Within(func(tx repositories.Repos) error {
		if _, err := tx.Products().GetByID(id); err != nil {
			return err
		}
		referenced, err := tx.Orders().ExistsLineByProductID(id)
		if err != nil {
			return err
		}
		if referenced {
			return tx.Products().Deactivate(id)
		}
		return tx.Products().Delete(id)
	})
}
