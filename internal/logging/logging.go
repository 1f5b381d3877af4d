// Package logging sets up zerolog and the per-request access log.
package logging

import (
	"errors"
	"os"
	"time"

	"clinic-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger and installs it as the zerolog global.
// Development gets human-readable console output, everything else JSON.
func New(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	logger = logger.Level(lvl)

	zerolog.SetGlobalLevel(lvl)
	log.Logger = logger
	return logger
}

// RequestLogger writes one line per request. It expects the requestid
// middleware to run first.
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// the error handler has not written the response yet
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = apperr.StatusOf(err)
			}
		}

		evt := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			evt = logger.Error().Err(err)
		case err != nil:
			evt = logger.Warn().Err(err)
		}

		rid, _ := c.Locals("requestid").(string)
		evt.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.IP()).
			Msg("request")

		return err
	}
}
