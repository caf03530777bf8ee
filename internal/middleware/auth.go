package middleware

import (
	"context"

	"go-taskhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into both the
// fiber locals and the request's user context (services read them from ctx).
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Dev-mode identity; capability checks are bypassed separately.
			dummyClaims := &utils.UserClaims{UserID: "000000000000000000000000"}
			c.Locals(utils.UserClaimsKey, dummyClaims)
			c.SetUserContext(context.WithValue(c.UserContext(), utils.UserClaimsKey, dummyClaims))
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := authHeader[7:]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		c.SetUserContext(context.WithValue(c.UserContext(), utils.UserClaimsKey, claims))
		return c.Next()
	}
}
