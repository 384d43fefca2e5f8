package handlers

import (
	"log"
	"strconv"

	"pasar/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to its stable code and HTTP status.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.Kind(err)
	if kind == apperrors.ErrInternal {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(kind.Status).JSON(fiber.Map{
		"code":    kind.Code,
		"message": kind.Message,
	})
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, apperrors.ErrInvalidInput
	}
	return uint(v), nil
}
