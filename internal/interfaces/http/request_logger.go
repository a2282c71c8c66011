package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

// RequestLogger registra método, ruta, status, duración y tenant de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("tenant", scopeOf(c).ID()).
			Msg("http")
		return err
	}
}
