package review

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReviewApi struct {
	controller *ReviewController
	config     *config.Config
	engine     *authz.Engine
}

func NewReviewApi(controller *ReviewController, cfg *config.Config, engine *authz.Engine) *ReviewApi {
	return &ReviewApi{
		controller: controller,
		config:     cfg,
		engine:     engine,
	}
}

// Setup registers access review routes
func (h *ReviewApi) Setup(app *fiber.App) {
	reviews := app.Group("/api/workspaces/:workspaceId/access-review",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
	)

	reviews.Get("/", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageMembers"), h.controller.ExportAccessReview)
}
