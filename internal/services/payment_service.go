package services

import (
	"context"
	"encoding/json"
	"log"

	"pasar/internal/apperrors"
	"pasar/internal/idgen"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/reservations"

	"github.com/shopspring/decimal"
)

// PaymentRequest carries the client's side of a payment. PaymentUID acts
// as the idempotency key; when empty a fresh one is generated.
type PaymentRequest struct {
	PaymentUID string          `json:"payment_uid"`
	Method     string          `json:"method" validate:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount" validate:"required"`
}

// PaymentService records settlements against orders. A successful payment
// commits the order's stock reservations: the ledger entries are deleted
// so no expiry can fire and re-credit stock that has been sold.
type PaymentService struct {
	uow       repositories.UnitOfWork
	ledger    reservations.Ledger
	publisher EventPublisher
	uids      idgen.PaymentUIDGenerator
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	uow repositories.UnitOfWork,
	ledger reservations.Ledger,
	publisher EventPublisher,
	uids idgen.PaymentUIDGenerator,
) *PaymentService {
	return &PaymentService{uow: uow, ledger: ledger, publisher: publisher, uids: uids}
}

// SavePayment settles an order. The order must still be ORDERED: a payment
// arriving after expiry or cancellation fails fast instead of charging the
// customer for stock that has already been returned. Returns the payment id.
func (s *PaymentService) SavePayment(ctx context.Context, userID, orderID uint, req PaymentRequest) (uint, error) {
	method := models.PaymentMethod(req.Method)
	if !method.Valid() {
		return 0, apperrors.ErrInvalidInput
	}

	uid := req.PaymentUID
	if uid == "" {
		generated, err := s.NewPaymentUID()
		if err != nil {
			return 0, err
		}
		uid = generated
	}

	var created models.Payment
	err := s.uow.Within(func(tx repositories.Repos) error {
		if _, err := tx.Users().GetByID(userID); err != nil {
			return err
		}
		order, err := tx.Orders().GetByID(orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusOrdered {
			return apperrors.ErrInvalidOrderStatus
		}
		if !req.PaidAmount.Equal(order.TotalPrice) {
			return apperrors.ErrInvalidInput
		}
		exists, err := tx.Payments().ExistsByUID(uid)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrPaymentUIDConflict
		}

		payment := models.Payment{
			OrderID:    order.ID,
			UserID:     userID,
			PaymentUID: uid,
			Method:     method,
			PaidAmount: req.PaidAmount,
			Status:     models.PaymentStatusSuccess,
		}
		if err := tx.Payments().Create(&payment); err != nil {
			return err
		}

		// Disarm the reservation TTL. A ledger failure rolls back the
		// payment row so the order stays payable.
		if err := s.ledger.Commit(ctx, order.ID); err != nil {
			return apperrors.Wrap(err, "failed to commit reservation ledger")
		}

		created = payment
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publishPayment(created)
	return created.ID, nil
}

// GetPaymentByID retrieves a single payment.
func (s *PaymentService) GetPaymentByID(paymentID uint) (*models.Payment, error) {
	return s.uow.Payments().GetByID(paymentID)
}

// GetPaymentByUID retrieves a payment by its idempotency key.
func (s *PaymentService) GetPaymentByUID(uid string) (*models.Payment, error) {
	return s.uow.Payments().GetByUID(uid)
}

// GetPaymentByOrderID retrieves the payment that settled an order.
func (s *PaymentService) GetPaymentByOrderID(orderID uint) (*models.Payment, error) {
	return s.uow.Payments().GetByOrderID(orderID)
}

// GetPaymentByIDAndOrderID retrieves a payment and verifies it settles the
// given order.
func (s *PaymentService) GetPaymentByIDAndOrderID(paymentID, orderID uint) (*models.Payment, error) {
	payment, err := s.uow.Payments().GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.OrderID != orderID {
		return nil, apperrors.ErrPaymentOrderMismatch
	}
	return payment, nil
}

// GetPaymentsByUserID lists every payment of one customer.
func (s *PaymentService) GetPaymentsByUserID(userID uint) ([]models.Payment, error) {
	if _, err := s.uow.Users().GetByID(userID); err != nil {
		return nil, err
	}
	return s.uow.Payments().GetByUserID(userID)
}

// GetPaymentsByUserIDAndStatus lists a customer's payments filtered by
// settlement status.
func (s *PaymentService) GetPaymentsByUserIDAndStatus(userID uint, status string) ([]models.Payment, error) {
	if _, err := s.uow.Users().GetByID(userID); err != nil {
		return nil, err
	}
	paymentStatus := models.PaymentStatus(status)
	if !paymentStatus.Valid() {
		return nil, apperrors.ErrInvalidPaymentStatus
	}
	return s.uow.Payments().GetByUserIDAndStatus(userID, paymentStatus)
}

// UpdatePaymentStatus sets the settlement status of a payment.
func (s *PaymentService) UpdatePaymentStatus(paymentID uint, status string) error {
	paymentStatus := models.PaymentStatus(status)
	if !paymentStatus.Valid() {
		return apperrors.ErrInvalidPaymentStatus
	}
	return s.uow.Payments().UpdateStatus(paymentID, paymentStatus)
}

// UpdatePaymentStatusByUserID is UpdatePaymentStatus with an ownership
// check.
func (s *PaymentService) UpdatePaymentStatusByUserID(paymentID, userID uint, status string) error {
	payment, err := s.uow.Payments().GetByID(paymentID)
	if err != nil {
		return err
	}
	if payment.UserID != userID {
		return apperrors.ErrPaymentBuyerMismatch
	}
	return s.UpdatePaymentStatus(paymentID, status)
}

// DeletePaymentByID removes a payment record.
func (s *PaymentService) DeletePaymentByID(paymentID uint) error {
	return s.uow.Payments().DeleteByID(paymentID)
}

// DeletePaymentByUID removes a payment record by its idempotency key.
func (s *PaymentService) DeletePaymentByUID(uid string) error {
	return s.uow.Payments().DeleteByUID(uid)
}

// NewPaymentUID issues a payment UID not yet present in the store. The
// collision window is astronomically small; the loop exists because the
// UID is a uniqueness key and a second attempt is cheaper than a failed
// insert.
func (s *PaymentService) NewPaymentUID() (string, error) {
	for {
		uid := s.uids.Generate()
		exists, err := s.uow.Payments().ExistsByUID(uid)
		if err != nil {
			return "", err
		}
		if !exists {
			return uid, nil
		}
	}
}

func (s *PaymentService) publishPayment(payment models.Payment) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(PaymentEvent{
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		UserID:     payment.UserID,
		PaymentUID: payment.PaymentUID,
		Method:     string(payment.Method),
		PaidAmount: payment.PaidAmount.String(),
	})
	if err != nil {
		log.Printf("Warning: failed to marshal payment event: %v", err)
		return
	}
	if err := s.publisher.Publish(EventExchange, EventPaymentReceived, body); err != nil {
		log.Printf("Warning: failed to publish payment event: %v", err)
	}
}
