package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pasar/internal/idgen"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/reservations"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *fiber.App
	uow    *repositories.MemoryUnitOfWork
	ledger *reservations.MemoryLedger
	orders *services.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	uow := repositories.NewMemoryUnitOfWork()
	ledger := reservations.NewMemoryLedger()

	authService := services.NewAuthService(uow, "test-secret", time.Hour)
	productService := services.NewProductService(uow)
	orderService := services.NewOrderService(uow, ledger, nil,
		idgen.NewOrderNumberGenerator(idgen.NewSource()), 3*time.Minute)
	paymentService := services.NewPaymentService(uow, ledger, nil,
		idgen.NewPaymentUIDGenerator())

	require.NoError(t, authService.RegisterUser(&models.User{
		Name:     "Store Admin",
		Email:    "admin@example.com",
		Password: "admin123",
		Role:     models.RoleAdmin,
	}))

	return &testEnv{
		app:    buildApp(authService, productService, orderService, paymentService),
		uow:    uow,
		ledger: ledger,
		orders: orderService,
	}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	// Register and log in a customer.
	status, body := env.request(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     "Budi Santoso",
		"email":    "budi@example.com",
		"password": "rahasia123",
		"address":  "Jl. Merdeka 1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	customerToken := env.login(t, "budi@example.com", "rahasia123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	// Only administrators may create products.
	status, _ = env.request(t, http.MethodPost, "/api/v1/products", customerToken, fiber.Map{
		"name": "Kopi Gayo", "price": "45000.00", "stock": 10,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.request(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{
		"name": "Kopi Gayo", "price": "45000.00", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))

	// The catalog is public.
	status, body = env.request(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	var catalog []models.Product
	require.NoError(t, json.Unmarshal(body, &catalog))
	assert.Len(t, catalog, 1)

	// Ordering requires authentication.
	status, _ = env.request(t, http.MethodPost, "/api/v1/orders", "", fiber.Map{
		"lines": []fiber.Map{{"product_id": product.ID, "quantity": 2}},
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.request(t, http.MethodPost, "/api/v1/orders", customerToken, fiber.Map{
		"lines": []fiber.Map{{"product_id": product.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, models.OrderStatusOrdered, order.Status)
	assert.Len(t, order.OrderNumber, 18)

	// Stock was reserved.
	stored, err := env.uow.Products().GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Stock)

	// Customers cannot ship their own orders.
	status, _ = env.request(t, http.MethodPatch,
		"/api/v1/orders/"+itoa(order.ID)+"/status", customerToken,
		fiber.Map{"status": string(models.OrderStatusShipped)})
	assert.Equal(t, http.StatusForbidden, status)

	// Pay the order in full.
	status, body = env.request(t, http.MethodPost, "/api/v1/payments", customerToken, fiber.Map{
		"order_id":    order.ID,
		"method":      string(models.PaymentMethodCard),
		"paid_amount": order.TotalPrice.String(),
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var payment models.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.True(t, payment.PaidAmount.Equal(decimal.RequireFromString("90000.00")))

	// A second payment against the same order fails fast: one payment per
	// order is enforced by the store.
	status, _ = env.request(t, http.MethodPost, "/api/v1/payments", customerToken, fiber.Map{
		"order_id":    order.ID,
		"method":      string(models.PaymentMethodCard),
		"paid_amount": order.TotalPrice.String(),
	})
	assert.Equal(t, http.StatusConflict, status)

	// Administrators ship and deliver.
	status, _ = env.request(t, http.MethodPatch,
		"/api/v1/orders/"+itoa(order.ID)+"/status", adminToken,
		fiber.Map{"status": string(models.OrderStatusShipped)})
	assert.Equal(t, http.StatusOK, status)

	status, body = env.request(t, http.MethodGet, "/api/v1/orders/"+itoa(order.ID), customerToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, models.OrderStatusShipped, order.Status)
}

func TestExpiredOrderRejectsPaymentOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name": "Siti Rahma", "email": "siti@example.com", "password": "rahasia123",
	})
	require.Equal(t, http.StatusCreated, status)
	token := env.login(t, "siti@example.com", "rahasia123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	status, body := env.request(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{
		"name": "Teh Melati", "price": "12000.00", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))

	status, body = env.request(t, http.MethodPost, "/api/v1/orders", token, fiber.Map{
		"lines": []fiber.Map{{"product_id": product.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))

	// Drive the payment window to its end.
	qty, ok := env.ledger.Expire(order.ID, product.ID)
	require.True(t, ok)
	require.NoError(t, env.orders.HandleReservationExpired(context.Background(), order.ID, product.ID, qty))

	// The late payment is rejected and the stock is back.
	status, body = env.request(t, http.MethodPost, "/api/v1/payments", token, fiber.Map{
		"order_id":    order.ID,
		"method":      string(models.PaymentMethodBankTransfer),
		"paid_amount": order.TotalPrice.String(),
	})
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	stored, err := env.uow.Products().GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)

	status, body = env.request(t, http.MethodGet, "/api/v1/orders/"+itoa(order.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, models.OrderStatusExpired, order.Status)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "healthy")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
