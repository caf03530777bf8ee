package capability

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CapabilityApi struct {
	controller *CapabilityController
	feed       *FeedHandler
	config     *config.Config
	engine     *authz.Engine
	log        *zap.Logger
}

func NewCapabilityApi(controller *CapabilityController, feed *FeedHandler, cfg *config.Config, engine *authz.Engine, log *zap.Logger) *CapabilityApi {
	return &CapabilityApi{
		controller: controller,
		feed:       feed,
		config:     cfg,
		engine:     engine,
		log:        log,
	}
}

// Setup registers capability routes
func (h *CapabilityApi) Setup(app *fiber.App) {
	caps := app.Group("/api/capabilities",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
		middleware.RequireFreshGrants(h.engine, h.config.SkipAuth, h.log),
	)

	caps.Get("/", h.controller.Grants)
	caps.Get("/can", h.controller.Can)
	caps.Post("/check", h.controller.Check)
	caps.Post("/batch", h.controller.BatchCheck)
	caps.Get("/version", h.controller.Version)

	// Version feed: workspace id in the path, auth during handshake.
	app.Get("/ws/workspaces/:workspaceId/versions",
		middleware.AuthMiddleware(h.config.SkipAuth),
		h.feed.Upgrade,
		h.feed.Stream(),
	)
}
