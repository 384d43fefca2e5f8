package handlers

import (
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and profiles.
type AuthHandler struct {
	service  *services.AuthService
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{service: service, validate: validate}
}

// RegisterRoutes registers the auth routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)

	authenticated := authRoutes.Group("/me", middleware.AuthRequired(h.service))
	authenticated.Get("/", h.HandleProfile)
	authenticated.Put("/", h.HandleUpdateProfile)
}

type registerRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	Address       string `json:"address" validate:"max=255"`
	DetailAddress string `json:"detail_address" validate:"max=255"`
	Phone         string `json:"phone" validate:"max=30"`
}

// HandleRegister creates a customer account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
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

	user := models.User{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Address:       req.Address,
		DetailAddress: req.DetailAddress,
		Phone:         req.Phone,
	}
	if err := h.service.RegisterUser(&user); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials and returns a signed token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
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

	token, err := h.service.LoginUser(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// HandleProfile returns the authenticated customer's profile.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

type updateProfileRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Address       string `json:"address" validate:"max=255"`
	DetailAddress string `json:"detail_address" validate:"max=255"`
	Phone         string `json:"phone" validate:"max=30"`
}

// HandleUpdateProfile updates the authenticated customer's mutable fields.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
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

	user := models.User{
		ID:            middleware.UserID(c),
		Name:          req.Name,
		Address:       req.Address,
		DetailAddress: req.DetailAddress,
		Phone:         req.Phone,
	}
	if err := h.service.UpdateUser(&user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
