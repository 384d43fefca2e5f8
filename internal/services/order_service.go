package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pasar/internal/apperrors"
	"pasar/internal/idgen"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/reservations"

	"github.com/shopspring/decimal"
)

// orderNumberAttempts bounds the collision retry loop for order numbers.
const orderNumberAttempts = 5

// OrderLineRequest is one requested order position.
type OrderLineRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gte=1"`
}

// OrderService orchestrates order placement, cancellation, status
// transitions and deletion. It is the business-rule authority for the
// reservation protocol: stock is decremented pessimistically at order time
// and either committed by a payment or released by expiry/cancellation.
type OrderService struct {
	uow            repositories.UnitOfWork
	ledger         reservations.Ledger
	publisher      EventPublisher
	orderNumbers   idgen.OrderNumberGenerator
	reservationTTL time.Duration
}

// NewOrderService creates a new OrderService. publisher may be nil when no
// broker is configured; events are then skipped.
func NewOrderService(
	uow repositories.UnitOfWork,
	ledger reservations.Ledger,
	publisher EventPublisher,
	orderNumbers idgen.OrderNumberGenerator,
	reservationTTL time.Duration,
) *OrderService {
	return &OrderService{
		uow:            uow,
		ledger:         ledger,
		publisher:      publisher,
		orderNumbers:   orderNumbers,
		reservationTTL: reservationTTL,
	}
}

// SaveOrder places an order for the given customer. The whole operation is
// one atomic unit: conditional stock decrements, price snapshots, order
// persistence and reservation ledger writes all succeed together or leave
// nothing behind. Returns the new order id.
func (s *OrderService) SaveOrder(ctx context.Context, userID uint, lines []OrderLineRequest) (uint, error) {
	if len(lines) == 0 {
		return 0, apperrors.ErrInvalidInput
	}
	merged, err := mergeLines(lines)
	if err != nil {
		return 0, err
	}

	user, err := s.uow.Users().GetByID(userID)
	if err != nil {
		return 0, err
	}

	var created models.Order
	err = s.uow.Within(func(tx repositories.Repos) error {
		totalQuantity := 0
		totalPrice := decimal.Zero
		orderLines := make([]models.OrderLine, 0, len(merged))

		for _, line := range merged {
			product, err := tx.Products().GetByID(line.ProductID)
			if err != nil {
				return err
			}
			if !product.Active {
				return apperrors.ErrProductNotFound
			}
			// Atomic conditional decrement; on failure the transaction
			// rolls back every decrement made for earlier lines.
			if err := tx.Products().DecrementStock(line.ProductID, line.Quantity); err != nil {
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			orderLines = append(orderLines, models.OrderLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				LineTotal: lineTotal,
			})
			totalQuantity += line.Quantity
			totalPrice = totalPrice.Add(lineTotal)
		}

		number, err := s.newOrderNumber(tx.Orders())
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:        userID,
			OrderNumber:   number,
			TotalQuantity: totalQuantity,
			TotalPrice:    totalPrice,
			Address:       user.ShippingAddress(),
			Status:        models.OrderStatusOrdered,
			Lines:         orderLines,
		}
		if err := tx.Orders().Create(&order); err != nil {
			return err
		}

		// Reservation durability is a precondition of a valid order, not a
		// best-effort side effect: a ledger write failure voids the order.
		for i, line := range order.Lines {
			if err := s.ledger.Reserve(ctx, order.ID, line.ProductID, line.Quantity, s.reservationTTL); err != nil {
				for _, written := range order.Lines[:i] {
					if _, releaseErr := s.ledger.ReleaseEntry(ctx, order.ID, written.ProductID); releaseErr != nil {
						log.Printf("Warning: failed to clean up reservation for order %d product %d: %v",
							order.ID, written.ProductID, releaseErr)
					}
				}
				return apperrors.Wrap(err, "failed to write reservation ledger")
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publish(EventOrderCreated, OrderEvent{
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		UserID:      created.UserID,
		Status:      string(created.Status),
		TotalPrice:  created.TotalPrice.String(),
		Address:     created.Address,
	})
	return created.ID, nil
}

// GetOrderByID retrieves a single order.
func (s *OrderService) GetOrderByID(orderID uint) (*models.Order, error) {
	return s.uow.Orders().GetByID(orderID)
}

// GetOrderByIDAndUserID retrieves an order and verifies the caller owns
// it. A mismatch is a distinct error from not-found: the order exists, it
// just is not this customer's.
func (s *OrderService) GetOrderByIDAndUserID(orderID, userID uint) (*models.Order, error) {
	order, err := s.uow.Orders().GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.ErrOrderBuyerMismatch
	}
	return order, nil
}

// GetOrderByOrderNumber retrieves a single order by its human-readable
// order number.
func (s *OrderService) GetOrderByOrderNumber(number string) (*models.Order, error) {
	return s.uow.Orders().GetByOrderNumber(number)
}

// GetOrdersByUserID lists every order of one customer.
func (s *OrderService) GetOrdersByUserID(userID uint) ([]models.Order, error) {
	if _, err := s.uow.Users().GetByID(userID); err != nil {
		return nil, err
	}
	return s.uow.Orders().GetByUserID(userID)
}

// GetOrdersByUserIDAndStatus lists a customer's orders filtered by status.
func (s *OrderService) GetOrdersByUserIDAndStatus(userID uint, status string) ([]models.Order, error) {
	if _, err := s.uow.Users().GetByID(userID); err != nil {
		return nil, err
	}
	orderStatus := models.OrderStatus(status)
	if !orderStatus.Valid() {
		return nil, apperrors.ErrInvalidOrderStatus
	}
	return s.uow.Orders().GetByUserIDAndStatus(userID, orderStatus)
}

// GetAllOrders lists every order, for administrators.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.uow.Orders().GetAll()
}

// GetOrdersPage lists orders page by page, newest first, for
// administrators.
func (s *OrderService) GetOrdersPage(page, size int) ([]models.Order, int64, error) {
	return s.uow.Orders().GetPage(page, size)
}

// UpdateOrderStatus transitions an order to the given status. Cancelling
// an ORDERED order releases its outstanding reservations through the same
// restock path expiry uses; no other transition touches inventory.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, status string) error {
	return s.updateStatus(ctx, orderID, 0, status)
}

// UpdateOrderStatusByUserID is UpdateOrderStatus with an ownership check.
func (s *OrderService) UpdateOrderStatusByUserID(ctx context.Context, orderID, userID uint, status string) error {
	return s.updateStatus(ctx, orderID, userID, status)
}

// UpdateOrderStatusByOrderNumber transitions an order addressed by its
// order number.
func (s *OrderService) UpdateOrderStatusByOrderNumber(ctx context.Context, number, status string) error {
	order, err := s.uow.Orders().GetByOrderNumber(number)
	if err != nil {
		return err
	}
	return s.updateStatus(ctx, order.ID, 0, status)
}

func (s *OrderService) updateStatus(ctx context.Context, orderID, userID uint, status string) error {
	next := models.OrderStatus(status)
	if !next.Valid() {
		return apperrors.ErrInvalidOrderStatus
	}

	var changed *models.Order
	err := s.uow.Within(func(tx repositories.Repos) error {
		order, err := tx.Orders().GetByID(orderID)
		if err != nil {
			return err
		}
		if userID != 0 && order.UserID != userID {
			return apperrors.ErrOrderBuyerMismatch
		}
		if order.Status == next {
			// No-op when unchanged.
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return apperrors.ErrInvalidOrderStatus
		}
		if err := tx.Orders().UpdateStatus(order.ID, next); err != nil {
			return err
		}
		if next == models.OrderStatusCancelled && order.Status == models.OrderStatusOrdered {
			if err := s.releaseOrderStock(ctx, tx, order); err != nil {
				return err
			}
		}
		order.Status = next
		changed = order
		return nil
	})
	if err != nil {
		return err
	}

	if changed != nil {
		s.publish(EventOrderStatusChanged, OrderEvent{
			OrderID:     changed.ID,
			OrderNumber: changed.OrderNumber,
			UserID:      changed.UserID,
			Status:      string(changed.Status),
			TotalPrice:  changed.TotalPrice.String(),
			Address:     changed.Address,
		})
	}
	return nil
}

// releaseOrderStock returns reserved stock for every line whose ledger
// entry still exists. Entries already expired (and restocked by the
// reactor) or committed by a payment report existed == false and are not
// credited again, so each reservation is released exactly once.
func (s *OrderService) releaseOrderStock(ctx context.Context, tx repositories.Repos, order *models.Order) error {
	for _, line := range order.Lines {
		existed, err := s.ledger.ReleaseEntry(ctx, order.ID, line.ProductID)
		if err != nil {
			return apperrors.Wrap(err, "failed to release reservation")
		}
		if !existed {
			continue
		}
		if err := tx.Products().IncrementStock(line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrderByID removes an order and its lines. Deletion is
// administrative cleanup, distinct from cancellation: it never restocks.
func (s *OrderService) DeleteOrderByID(orderID uint) error {
	return s.uow.Orders().DeleteByID(orderID)
}

// DeleteOrderByOrderNumber removes an order addressed by its order number.
func (s *OrderService) DeleteOrderByOrderNumber(number string) error {
	return s.uow.Orders().DeleteByOrderNumber(number)
}

// HandleReservationExpired is the expiry transition function fed by the
// reservation reactor: re-credit the product stock, and when this was the
// last outstanding reservation of a still-unpaid order, mark the order
// EXPIRED.
func (s *OrderService) HandleReservationExpired(ctx context.Context, orderID, productID uint, qty int) error {
	var expired *models.Order
	err := s.uow.Within(func(tx repositories.Repos) error {
		if err := tx.Products().IncrementStock(productID, qty); err != nil {
			return err
		}

		pending, err := s.ledger.PendingCount(ctx, orderID)
		if err != nil {
			return apperrors.Wrap(err, "failed to count pending reservations")
		}
		if pending > 0 {
			return nil
		}

		paid, err := tx.Payments().ExistsByOrderID(orderID)
		if err != nil {
			return err
		}
		if paid {
			return nil
		}

		order, err := tx.Orders().GetByID(orderID)
		if err != nil {
			// The order may have been deleted meanwhile; the restock
			// above still stands.
			if apperrors.Kind(err) == apperrors.ErrOrderNotFound {
				return nil
			}
			return err
		}
		if order.Status != models.OrderStatusOrdered {
			return nil
		}
		if err := tx.Orders().UpdateStatus(order.ID, models.OrderStatusExpired); err != nil {
			return err
		}
		order.Status = models.OrderStatusExpired
		expired = order
		return nil
	})
	if err != nil {
		return err
	}

	if expired != nil {
		s.publish(EventOrderStatusChanged, OrderEvent{
			OrderID:     expired.ID,
			OrderNumber: expired.OrderNumber,
			UserID:      expired.UserID,
			Status:      string(expired.Status),
			TotalPrice:  expired.TotalPrice.String(),
			Address:     expired.Address,
		})
	}
	return nil
}

func (s *OrderService) newOrderNumber(orders repositories.OrderRepository) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number := s.orderNumbers.Generate()
		exists, err := orders.ExistsByOrderNumber(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", apperrors.ErrOrderNumberConflict
}

func (s *OrderService) publish(routingKey string, event interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(EventExchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

// mergeLines aggregates duplicate product ids so each product gets exactly
// one order line and one ledger entry, preserving first-seen order.
func mergeLines(lines []OrderLineRequest) ([]OrderLineRequest, error) {
	merged := make([]OrderLineRequest, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, apperrors.ErrInvalidInput
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}
