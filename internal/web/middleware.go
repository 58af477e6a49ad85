package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qualitylink/qldash/internal/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continue chain; errors are rendered here so the logged status is the real one
		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		stop := time.Now()
		latency := stop.Sub(start)

		logger.InfoWithFields("Request", map[string]interface{}{
			"timestamp": stop.Format("2006/01/02 - 15:04:05"),
			"status":    c.Response().StatusCode(),
			"latency":   latency,
			"ip":        c.IP(),
			"method":    c.Method(),
			"path":      c.Path(),
			"handler":   c.Route().Name,
		})

		return nil
	}
}
