package services

import (
	"context"
	"sync"
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

type capturedEvent struct {
	Exchange   string
	RoutingKey string
	Body       []byte
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturePublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Exchange: exchange, RoutingKey: routingKey, Body: body})
	return nil
}

func (p *capturePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

type stubNumberGen struct {
	numbers []string
	i       int
}

func (g *stubNumberGen) Generate() string {
	n := g.numbers[g.i%len(g.numbers)]
	g.i++
	return n
}

type orderFixture struct {
	svc       *OrderService
	uow       *repositories.MemoryUnitOfWork
	ledger    *reservations.MemoryLedger
	publisher *capturePublisher
	userID    uint
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	uow := repositories.NewMemoryUnitOfWork()
	ledger := reservations.NewMemoryLedger()
	publisher := &capturePublisher{}
	svc := NewOrderService(uow, ledger, publisher,
		idgen.NewOrderNumberGenerator(idgen.NewSource()), 3*time.Minute)

	user := &models.User{
		Name:          "Budi Santoso",
		Email:         "budi@example.com",
		Password:      "hashed",
		Address:       "Jl. Merdeka 1",
		DetailAddress: "Blok C2",
	}
	require.NoError(t, uow.Users().Create(user))

	return &orderFixture{svc: svc, uow: uow, ledger: ledger, publisher: publisher, userID: user.ID}
}

func (f *orderFixture) addProduct(t *testing.T, name, price string, stock int) uint {
	t.Helper()
	product := &models.Product{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	require.NoError(t, f.uow.Products().Create(product))
	return product.ID
}

func (f *orderFixture) stock(t *testing.T, productID uint) int {
	t.Helper()
	product, err := f.uow.Products().GetByID(productID)
	require.NoError(t, err)
	return product.Stock
}

func TestSaveOrderReservesStockAndSnapshotsPrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Kopi Gayo", "45000.00", 10)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 3}})
	require.NoError(t, err)

	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOrdered, order.Status)
	assert.Len(t, order.OrderNumber, 18)
	assert.Equal(t, "Jl. Merdeka 1 Blok C2", order.Address)
	assert.Equal(t, 3, order.TotalQuantity)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("135000.00")))

	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("45000.00")))
	assert.True(t, order.Lines[0].LineTotal.Equal(decimal.RequireFromString("135000.00")))

	assert.Equal(t, 7, f.stock(t, productID))

	pending, err := f.ledger.PendingCount(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	qty, err := f.ledger.ReservedQty(ctx, orderID, productID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	assert.Equal(t, []string{EventOrderCreated}, f.publisher.keys())
}

func TestSaveOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Teh Melati", "12000.00", 2)

	_, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 3}})
	assert.Equal(t, apperrors.ErrInsufficientStock, apperrors.Kind(err))

	assert.Equal(t, 2, f.stock(t, productID))
	orders, err := f.svc.GetOrdersByUserID(f.userID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.publisher.keys())
}

func TestSaveOrderMultiLineRollback(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	okID := f.addProduct(t, "Gula Aren", "30000.00", 10)
	shortID := f.addProduct(t, "Madu Hutan", "90000.00", 1)

	_, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{
		{ProductID: okID, Quantity: 4},
		{ProductID: shortID, Quantity: 2},
	})
	assert.Equal(t, apperrors.ErrInsufficientStock, apperrors.Kind(err))

	// The first line's decrement must be rolled back with the rest.
	assert.Equal(t, 10, f.stock(t, okID))
	assert.Equal(t, 1, f.stock(t, shortID))
}

func TestSaveOrderConcurrentBuyersNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Keris Pusaka", "2500000.00", 1)

	second := &models.User{Name: "Siti Rahma", Email: "siti@example.com", Password: "hashed", Address: "Jl. Kenanga 7"}
	require.NoError(t, f.uow.Users().Create(second))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uint{f.userID, second.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = f.svc.SaveOrder(ctx, userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperrors.ErrInsufficientStock, apperrors.Kind(err))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stock(t, productID))
}

func TestSaveOrderPriceImmutableAfterCatalogChange(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Batik Tulis", "350000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	product, err := f.uow.Products().GetByID(productID)
	require.NoError(t, err)
	product.Price = decimal.RequireFromString("500000.00")
	require.NoError(t, f.uow.Products().Update(product))

	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("350000.00")))
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("350000.00")))
}

func TestSaveOrderInactiveProduct(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Kain Songket", "800000.00", 3)
	require.NoError(t, f.uow.Products().Deactivate(productID))

	_, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	assert.Equal(t, apperrors.ErrProductNotFound, apperrors.Kind(err))
}

func TestSaveOrderMergesDuplicateLines(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Kripik Tempe", "15000.00", 10)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{
		{ProductID: productID, Quantity: 2},
		{ProductID: productID, Quantity: 3},
	})
	require.NoError(t, err)

	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 5, order.Lines[0].Quantity)

	qty, err := f.ledger.ReservedQty(ctx, orderID, productID)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)
	assert.Equal(t, 5, f.stock(t, productID))
}

func TestSaveOrderNumberCollisionRetry(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Dodol Garut", "20000.00", 10)

	f.svc.orderNumbers = &stubNumberGen{numbers: []string{"20260901AAAAAAAAAA", "20260901AAAAAAAAAA", "20260901BBBBBBBBBB"}}

	first, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)
	order, err := f.svc.GetOrderByID(first)
	require.NoError(t, err)
	assert.Equal(t, "20260901AAAAAAAAAA", order.OrderNumber)

	// The second attempt collides once, then lands on a fresh number.
	second, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)
	order, err = f.svc.GetOrderByID(second)
	require.NoError(t, err)
	assert.Equal(t, "20260901BBBBBBBBBB", order.OrderNumber)
}

func TestSaveOrderNumberExhaustion(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Rendang Kering", "75000.00", 10)

	f.svc.orderNumbers = &stubNumberGen{numbers: []string{"20260901AAAAAAAAAA"}}

	_, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	assert.Equal(t, apperrors.ErrOrderNumberConflict, apperrors.Kind(err))
	// Exhaustion rolls the whole order back, stock included.
	assert.Equal(t, 9, f.stock(t, productID))
}

func TestUpdateOrderStatusCancelRestocks(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Sambal Bajak", "18000.00", 6)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, productID))

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusCancelled)))

	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, 6, f.stock(t, productID))

	pending, err := f.ledger.PendingCount(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
	assert.Equal(t, []string{EventOrderCreated, EventOrderStatusChanged}, f.publisher.keys())
}

func TestCancelAfterPaymentCommitDoesNotRestock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Kopi Luwak", "250000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Commit(ctx, orderID))

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusCancelled)))

	// The reservation was already committed; cancellation must not credit
	// the stock a second time.
	assert.Equal(t, 3, f.stock(t, productID))
}

func TestHandleReservationExpiredRestocksAndExpiresOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Emping Melinjo", "22000.00", 8)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, productID))

	qty, ok := f.ledger.Expire(orderID, productID)
	require.True(t, ok)
	require.NoError(t, f.svc.HandleReservationExpired(ctx, orderID, productID, qty))

	assert.Equal(t, 8, f.stock(t, productID))
	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExpired, order.Status)

	// EXPIRED is terminal; a late cancel is rejected.
	err = f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusCancelled))
	assert.Equal(t, apperrors.ErrInvalidOrderStatus, apperrors.Kind(err))
	assert.Equal(t, 8, f.stock(t, productID))
}

func TestHandleReservationExpiredPartialOrderStaysOrdered(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	firstID := f.addProduct(t, "Ikan Asin", "25000.00", 5)
	secondID := f.addProduct(t, "Terasi Udang", "10000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{
		{ProductID: firstID, Quantity: 2},
		{ProductID: secondID, Quantity: 1},
	})
	require.NoError(t, err)

	qty, ok := f.ledger.Expire(orderID, firstID)
	require.True(t, ok)
	require.NoError(t, f.svc.HandleReservationExpired(ctx, orderID, firstID, qty))

	assert.Equal(t, 5, f.stock(t, firstID))
	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOrdered, order.Status)

	qty, ok = f.ledger.Expire(orderID, secondID)
	require.True(t, ok)
	require.NoError(t, f.svc.HandleReservationExpired(ctx, orderID, secondID, qty))

	order, err = f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExpired, order.Status)
}

func TestHandleReservationExpiredPaidOrderKeepsStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Gudeg Kaleng", "35000.00", 4)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, f.uow.Payments().Create(&models.Payment{
		OrderID:    orderID,
		UserID:     f.userID,
		PaymentUID: "abc123",
		Method:     models.PaymentMethodCard,
		PaidAmount: decimal.RequireFromString("70000.00"),
		Status:     models.PaymentStatusSuccess,
	}))

	qty, ok := f.ledger.Expire(orderID, productID)
	require.True(t, ok)
	require.NoError(t, f.svc.HandleReservationExpired(ctx, orderID, productID, qty))

	order, err := f.svc.GetOrderByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOrdered, order.Status)
}

func TestGetOrderByIDAndUserIDOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Bika Ambon", "40000.00", 3)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	stranger := &models.User{Name: "Andi Wijaya", Email: "andi@example.com", Password: "hashed"}
	require.NoError(t, f.uow.Users().Create(stranger))

	_, err = f.svc.GetOrderByIDAndUserID(orderID, stranger.ID)
	assert.Equal(t, apperrors.ErrOrderBuyerMismatch, apperrors.Kind(err))

	order, err := f.svc.GetOrderByIDAndUserID(orderID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Pempek Kapal Selam", "28000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	// ORDERED may not jump straight to DELIVERED.
	err = f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusDelivered))
	assert.Equal(t, apperrors.ErrInvalidOrderStatus, apperrors.Kind(err))

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusShipped)))
	require.NoError(t, f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusDelivered)))

	err = f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusCancelled))
	assert.Equal(t, apperrors.ErrInvalidOrderStatus, apperrors.Kind(err))

	err = f.svc.UpdateOrderStatus(ctx, orderID, "LOST")
	assert.Equal(t, apperrors.ErrInvalidOrderStatus, apperrors.Kind(err))
}

func TestUpdateOrderStatusNoOpWhenUnchanged(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Serundeng Kelapa", "16000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, orderID, string(models.OrderStatusOrdered)))
	// No status_changed event for a no-op.
	assert.Equal(t, []string{EventOrderCreated}, f.publisher.keys())
}

func TestUpdateOrderStatusByUserIDOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Abon Sapi", "55000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	stranger := &models.User{Name: "Dewi Lestari", Email: "dewi@example.com", Password: "hashed"}
	require.NoError(t, f.uow.Users().Create(stranger))

	err = f.svc.UpdateOrderStatusByUserID(ctx, orderID, stranger.ID, string(models.OrderStatusCancelled))
	assert.Equal(t, apperrors.ErrOrderBuyerMismatch, apperrors.Kind(err))

	require.NoError(t, f.svc.UpdateOrderStatusByUserID(ctx, orderID, f.userID, string(models.OrderStatusCancelled)))
}

func TestGetOrdersPage(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Wajik Ketan", "14000.00", 100)

	ids := make([]uint, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, total, err := f.svc.GetOrdersPage(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	page, total, err = f.svc.GetOrdersPage(3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)
}

func TestDeleteOrderDoesNotRestock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Tape Singkong", "9000.00", 5)

	orderID, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrderByID(orderID))
	_, err = f.svc.GetOrderByID(orderID)
	assert.Equal(t, apperrors.ErrOrderNotFound, apperrors.Kind(err))
	assert.Equal(t, 3, f.stock(t, productID))
}

func TestGetOrdersByUserIDAndStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productID := f.addProduct(t, "Lemper Ayam", "8000.00", 20)

	first, err := f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.svc.SaveOrder(ctx, f.userID, []OrderLineRequest{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdateOrderStatus(ctx, first, string(models.OrderStatusCancelled)))

	cancelled, err := f.svc.GetOrdersByUserIDAndStatus(f.userID, string(models.OrderStatusCancelled))
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first, cancelled[0].ID)

	_, err = f.svc.GetOrdersByUserIDAndStatus(f.userID, "BOGUS")
	assert.Equal(t, apperrors.ErrInvalidOrderStatus, apperrors.Kind(err))
}
