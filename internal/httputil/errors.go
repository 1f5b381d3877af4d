package httputil

import (
	"errors"

	"clinic-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorHandler renders every error as {"message": ...}. Internal causes are
// logged, never sent to the client.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		var ae *apperr.Error
		if errors.As(err, &ae) {
			if ae.Status >= fiber.StatusInternalServerError {
				logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			}
			return c.Status(apperr.StatusOf(ae)).JSON(fiber.Map{"message": ae.Message})
		}

		logger.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "unexpected server error"})
	}
}
