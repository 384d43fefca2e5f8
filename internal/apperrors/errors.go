package apperrors

import (
	cr "github.com/cockroachdb/errors"
)

// AppError is a stable, machine-readable error kind. Each value doubles as a
// sentinel: wrap a low-level cause with Mark and select the kind with
// errors.Is on the caller side.
type AppError struct {
	Code    string
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// Common
	ErrInvalidInput = &AppError{Code: "C001", Status: 400, Message: "invalid input value"}
	ErrInternal     = &AppError{Code: "C005", Status: 500, Message: "internal server error"}

	// User
	ErrEmailDuplication   = &AppError{Code: "U001", Status: 400, Message: "email already registered"}
	ErrCustomerNotFound   = &AppError{Code: "U002", Status: 404, Message: "customer not found"}
	ErrInvalidCredentials = &AppError{Code: "U003", Status: 401, Message: "invalid credentials"}

	// Product
	ErrProductDuplication = &AppError{Code: "P001", Status: 400, Message: "product already exists"}
	ErrProductNotFound    = &AppError{Code: "P002", Status: 404, Message: "product not found"}
	ErrInsufficientStock  = &AppError{Code: "P003", Status: 400, Message: "insufficient product stock"}

	// Order
	ErrOrderNotFound       = &AppError{Code: "O001", Status: 404, Message: "order not found"}
	ErrInvalidOrderStatus  = &AppError{Code: "O002", Status: 400, Message: "invalid order status"}
	ErrOrderBuyerMismatch  = &AppError{Code: "O003", Status: 403, Message: "order does not belong to this customer"}
	ErrOrderNumberConflict = &AppError{Code: "O004", Status: 409, Message: "order number generation exhausted"}

	// Payment
	ErrPaymentNotFound      = &AppError{Code: "E002", Status: 404, Message: "payment not found"}
	ErrPaymentUIDConflict   = &AppError{Code: "E004", Status: 409, Message: "payment uid already used"}
	ErrInvalidPaymentStatus = &AppError{Code: "E005", Status: 400, Message: "invalid payment status"}
	ErrPaymentBuyerMismatch = &AppError{Code: "E006", Status: 403, Message: "payment does not belong to this customer"}
	ErrPaymentOrderMismatch = &AppError{Code: "E007", Status: 400, Message: "payment does not settle this order"}
)

// Mark attaches kind as a recognizable marker on err without hiding the
// original cause.
func Mark(err error, kind *AppError) error {
	if err == nil {
		return kind
	}
	return cr.Mark(err, kind)
}

// Wrap adds context to err, preserving marked kinds.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Kind extracts the AppError marked on err, or ErrInternal when none is.
func Kind(err error) *AppError {
	var appErr *AppError
	if cr.As(err, &appErr) {
		return appErr
	}
	for _, kind := range []*AppError{
		ErrInvalidInput, ErrEmailDuplication, ErrCustomerNotFound, ErrInvalidCredentials,
		ErrProductDuplication, ErrProductNotFound, ErrInsufficientStock,
		ErrOrderNotFound, ErrInvalidOrderStatus, ErrOrderBuyerMismatch, ErrOrderNumberConflict,
		ErrPaymentNotFound, ErrPaymentUIDConflict, ErrInvalidPaymentStatus,
		ErrPaymentBuyerMismatch, ErrPaymentOrderMismatch,
	} {
		if cr.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
