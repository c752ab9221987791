package http

import (
	"strconv"

	"github.com/Maxito7/gallery_backend/internal/application"
	"github.com/gofiber/fiber/v2"
)

// RateLimit rejects requests from a client IP once it runs out of its
// window budget.
func RateLimit(limiter *application.RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		ip := c.IP()
		if ok, err := limiter.Allow(ip); !ok {
			c.Set("X-RateLimit-Remaining", "0")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(limiter.GetRemaining(ip)))
		return c.Next()
	}
}
