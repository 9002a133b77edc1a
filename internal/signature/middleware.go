package signature

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Middleware rejects requests whose X-Signature header does not match
// the HMAC of the raw request body. c.Body() is the literal bytes
// received over the wire, before any parsing.
func Middleware(verifier *Verifier, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := verifier.Verify(c.Body(), c.Get(Header)); err != nil {
			logger.Warn("Rejected unauthenticated request",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Next()
	}
}
