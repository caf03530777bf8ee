package middleware

import (
	"context"

	common_models "go-taskhub/internal/common/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkspaceLocalsKey is the fiber locals key holding the workspace ObjectID.
const WorkspaceLocalsKey = "workspace_id"

// WorkspaceMiddleware resolves the tenant for the request, from the
// :workspaceId path param when the route carries one, otherwise from the
// X-Workspace-ID header. Routes behind it can rely on a valid workspace id
// in locals and in the user context.
func WorkspaceMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("workspaceId")
		if raw == "" {
			raw = c.Get("X-Workspace-ID")
		}
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Workspace id required (X-Workspace-ID header or path param)",
			})
		}

		workspaceID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid workspace id",
			})
		}

		c.Locals(WorkspaceLocalsKey, workspaceID)
		c.SetUserContext(context.WithValue(c.UserContext(), common_models.WorkspaceIDKey, workspaceID.Hex()))
		return c.Next()
	}
}

// WorkspaceFromLocals returns the workspace id resolved by
// WorkspaceMiddleware, false when the middleware did not run.
func WorkspaceFromLocals(c *fiber.Ctx) (primitive.ObjectID, bool) {
	id, ok := c.Locals(WorkspaceLocalsKey).(primitive.ObjectID)
	return id, ok
}
