package services

import (
	"context"
	"testing"
	"time"

	"pasar/internal/apperrors"
	"pasar/internal/idgen"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/reservations"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService() (*ProductService, *repositories.MemoryUnitOfWork) {
	uow := repositories.NewMemoryUnitOfWork()
	return NewProductService(uow), uow
}

func TestCreateProductDuplicateName(t *testing.T) {
	svc, _ := newProductService()

	require.NoError(t, svc.CreateProduct(&models.Product{
		Name: "Kopi Gayo", Price: decimal.RequireFromString("45000.00"), Stock: 10,
	}))
	err := svc.CreateProduct(&models.Product{
		Name: "Kopi Gayo", Price: decimal.RequireFromString("50000.00"), Stock: 5,
	})
	assert.Equal(t, apperrors.ErrProductDuplication, apperrors.Kind(err))
}

func TestCreateProductRejectsNegativeValues(t *testing.T) {
	svc, _ := newProductService()

	err := svc.CreateProduct(&models.Product{Name: "Teh Melati", Price: decimal.RequireFromString("-1.00"), Stock: 1})
	assert.Equal(t, apperrors.ErrInvalidInput, apperrors.Kind(err))

	err = svc.CreateProduct(&models.Product{Name: "Teh Melati", Price: decimal.RequireFromString("1.00"), Stock: -1})
	assert.Equal(t, apperrors.ErrInvalidInput, apperrors.Kind(err))
}

func TestDeleteProductUnreferenced(t *testing.T) {
	svc, _ := newProductService()

	product := &models.Product{Name: "Gula Aren", Price: decimal.RequireFromString("30000.00"), Stock: 10}
	require.NoError(t, svc.CreateProduct(product))

	require.NoError(t, svc.DeleteProduct(product.ID))
	_, err := svc.GetProductByID(product.ID)
	assert.Equal(t, apperrors.ErrProductNotFound, apperrors.Kind(err))
}

func TestDeleteProductReferencedByOrderDeactivates(t *testing.T) {
	uow := repositories.NewMemoryUnitOfWork()
	products := NewProductService(uow)
	orders := NewOrderService(uow, reservations.NewMemoryLedger(), nil,
		idgen.NewOrderNumberGenerator(idgen.NewSource()), 3*time.Minute)

	user := &models.User{Name: "Budi Santoso", Email: "budi@example.com", Password: "hashed"}
	require.NoError(t, uow.Users().Create(user))
	product := &models.Product{Name: "Batik Tulis", Price: decimal.RequireFromString("350000.00"), Stock: 5}
	require.NoError(t, products.CreateProduct(product))

	_, err := orders.SaveOrder(context.Background(), user.ID,
		[]OrderLineRequest{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, products.DeleteProduct(product.ID))

	// Still present for the order's sake, just no longer purchasable.
	kept, err := products.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.False(t, kept.Active)

	visible, err := products.GetAllProducts(true)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := products.GetAllProducts(false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newProductService()

	product := &models.Product{Name: "Madu Hutan", Price: decimal.RequireFromString("90000.00"), Stock: 3}
	require.NoError(t, svc.CreateProduct(product))

	product.Price = decimal.RequireFromString("95000.00")
	product.Stock = 8
	require.NoError(t, svc.UpdateProduct(product))

	got, err := svc.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("95000.00")))
	assert.Equal(t, 8, got.Stock)

	missing := &models.Product{ID: 999, Name: "Hilang", Price: decimal.RequireFromString("1.00")}
	err = svc.UpdateProduct(missing)
	assert.Equal(t, apperrors.ErrProductNotFound, apperrors.Kind(err))
}
