package policy

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PolicyApi struct {
	controller *PolicyController
	config     *config.Config
	engine     *authz.Engine
}

func NewPolicyApi(controller *PolicyController, cfg *config.Config, engine *authz.Engine) *PolicyApi {
	return &PolicyApi{
		controller: controller,
		config:     cfg,
		engine:     engine,
	}
}

// Setup registers policy routes
func (h *PolicyApi) Setup(app *fiber.App) {
	policies := app.Group("/api/policies",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
	)

	policies.Get("/", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManagePolicies"), h.controller.ListPolicies)
	policies.Post("/", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManagePolicies"), h.controller.CreatePolicy)
	policies.Get("/:id", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManagePolicies"), h.controller.GetPolicy)
	policies.Put("/:id", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManagePolicies"), h.controller.UpdatePolicy)
	policies.Delete("/:id", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManagePolicies"), h.controller.DeletePolicy)
}
