package handlers

import (
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{service: service, validate: validate}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	paymentRoutes := router.Group("/payments", auth)
	paymentRoutes.Post("/", h.HandleCreatePayment)
	paymentRoutes.Get("/", h.HandleGetMyPayments)
	paymentRoutes.Get("/new-uid", h.HandleNewPaymentUID)
	paymentRoutes.Get("/:id", h.HandleGetPaymentByID)
	paymentRoutes.Patch("/:id/status", h.HandleUpdatePaymentStatus)

	adminRoutes := router.Group("/admin/payments", auth, admin)
	adminRoutes.Get("/uid/:uid", h.HandleGetPaymentByUID)
	adminRoutes.Get("/order/:orderID", h.HandleGetPaymentByOrderID)
	adminRoutes.Delete("/uid/:uid", h.HandleDeletePaymentByUID)
	adminRoutes.Delete("/:id", h.HandleDeletePayment)
}

type createPaymentRequest struct {
	OrderID    uint            `json:"order_id" validate:"required"`
	PaymentUID string          `json:"payment_uid"`
	Method     string          `json:"method" validate:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount" validate:"required"`
}

// HandleCreatePayment settles an order for the authenticated customer.
func (h *PaymentHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "C001",
			"message": "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "C001",
			"message": err.Error(),
		})
	}

	paymentID, err := h.service.SavePayment(c.Context(), middleware.UserID(c), req.OrderID, services.PaymentRequest{
		PaymentUID: req.PaymentUID,
		Method:     req.Method,
		PaidAmount: req.PaidAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	payment, err := h.service.GetPaymentByID(paymentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// HandleGetMyPayments lists the authenticated customer's payments,
// optionally filtered by ?status=.
func (h *PaymentHandler) HandleGetMyPayments(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	status := c.Query("status")

	var (
		payments []models.Payment
		err      error
	)
	if status == "" {
		payments, err = h.service.GetPaymentsByUserID(userID)
	} else {
		payments, err = h.service.GetPaymentsByUserIDAndStatus(userID, status)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// HandleNewPaymentUID issues a fresh payment UID for the client to use as
// an idempotency key.
func (h *PaymentHandler) HandleNewPaymentUID(c *fiber.Ctx) error {
	uid, err := h.service.NewPaymentUID()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"payment_uid": uid})
}

// HandleGetPaymentByID retrieves a single payment. Administrators may read
// any payment; customers only their own.
func (h *PaymentHandler) HandleGetPaymentByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	payment, err := h.service.GetPaymentByID(id)
	if err != nil {
		return respondError(c, err)
	}
	if middleware.Role(c) != models.RoleAdmin && payment.UserID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":    "E006",
			"message": "payment does not belong to this customer",
		})
	}
	return c.JSON(payment)
}

// HandleUpdatePaymentStatus sets a payment's settlement status.
func (h *PaymentHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "C001",
			"message": "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "C001",
			"message": err.Error(),
		})
	}

	if middleware.Role(c) == models.RoleAdmin {
		err = h.service.UpdatePaymentStatus(id, req.Status)
	} else {
		err = h.service.UpdatePaymentStatusByUserID(id, middleware.UserID(c), req.Status)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "payment status updated", "status": req.Status})
}

// HandleGetPaymentByUID retrieves a payment by its idempotency key.
func (h *PaymentHandler) HandleGetPaymentByUID(c *fiber.Ctx) error {
	payment, err := h.service.GetPaymentByUID(c.Params("uid"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

// HandleGetPaymentByOrderID retrieves the payment that settled an order.
func (h *PaymentHandler) HandleGetPaymentByOrderID(c *fiber.Ctx) error {
	orderID, err := parseIDParam(c, "orderID")
	if err != nil {
		return respondError(c, err)
	}
	payment, err := h.service.GetPaymentByOrderID(orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

// HandleDeletePayment removes a payment record.
func (h *PaymentHandler) HandleDeletePayment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeletePaymentByID(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "payment deleted"})
}

// HandleDeletePaymentByUID removes a payment record by its idempotency key.
func (h *PaymentHandler) HandleDeletePaymentByUID(c *fiber.Ctx) error {
	if err := h.service.DeletePaymentByUID(c.Params("uid")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "payment deleted"})
}
