package handlers

import (
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{service: service, validate: validate}
}

// RegisterRoutes registers the order routes with the Fiber app. All order
// routes require authentication; listing every order and deleting orders
// are administrator operations.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)

	adminRoutes := router.Group("/admin/orders", auth, admin)
	adminRoutes.Get("/", h.HandleGetAllOrders)
	adminRoutes.Get("/number/:number", h.HandleGetOrderByNumber)
	adminRoutes.Patch("/number/:number/status", h.HandleUpdateOrderStatusByNumber)
	adminRoutes.Delete("/number/:number", h.HandleDeleteOrderByNumber)
	adminRoutes.Delete("/:id", h.HandleDeleteOrder)
}

type createOrderRequest struct {
	Lines []services.OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// HandleCreateOrder places an order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
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

	orderID, err := h.service.SaveOrder(c.Context(), middleware.UserID(c), req.Lines)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the authenticated customer's orders, optionally
// filtered by ?status=.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	status := c.Query("status")

	var (
		orders []models.Order
		err    error
	)
	if status == "" {
		orders, err = h.service.GetOrdersByUserID(userID)
	} else {
		orders, err = h.service.GetOrdersByUserIDAndStatus(userID, status)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order. Administrators may read any
// order; customers only their own.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var order *models.Order
	if middleware.Role(c) == models.RoleAdmin {
		order, err = h.service.GetOrderByID(id)
	} else {
		order, err = h.service.GetOrderByIDAndUserID(id, middleware.UserID(c))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus transitions an order. Administrators may apply
// any valid transition; customers may only cancel their own orders.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
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
		err = h.service.UpdateOrderStatus(c.Context(), id, req.Status)
	} else {
		if req.Status != string(models.OrderStatusCancelled) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"code":    "O002",
				"message": "customers may only cancel orders",
			})
		}
		err = h.service.UpdateOrderStatusByUserID(c.Context(), id, middleware.UserID(c), req.Status)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "order status updated", "status": req.Status})
}

// HandleGetAllOrders lists orders for administrators, paged via ?page= and
// ?size=.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 20)
	orders, total, err := h.service.GetOrdersPage(page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"page":   page,
		"size":   size,
	})
}

// HandleGetOrderByNumber retrieves an order by its order number.
func (h *OrderHandler) HandleGetOrderByNumber(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByOrderNumber(c.Params("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatusByNumber transitions an order addressed by its
// order number.
func (h *OrderHandler) HandleUpdateOrderStatusByNumber(c *fiber.Ctx) error {
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
	if err := h.service.UpdateOrderStatusByOrderNumber(c.Context(), c.Params("number"), req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "order status updated", "status": req.Status})
}

// HandleDeleteOrder removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteOrderByID(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "order deleted"})
}

// HandleDeleteOrderByNumber removes an order addressed by its order number.
func (h *OrderHandler) HandleDeleteOrderByNumber(c *fiber.Ctx) error {
	if err := h.service.DeleteOrderByOrderNumber(c.Params("number")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "order deleted"})
}
