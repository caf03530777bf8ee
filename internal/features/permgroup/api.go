package permgroup

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
	engine     *authz.Engine
}

func NewGroupApi(controller *GroupController, cfg *config.Config, engine *authz.Engine) *GroupApi {
	return &GroupApi{
		controller: controller,
		config:     cfg,
		engine:     engine,
	}
}

// Setup registers permission group routes
func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/permission-groups",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
	)

	groups.Get("/", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles"), h.controller.ListGroups)
	groups.Post("/", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles"), h.controller.CreateGroup)
	groups.Get("/:id", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles"), h.controller.GetGroup)
	groups.Put("/:id/permissions", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles"), h.controller.SetPermissions)
	groups.Delete("/:id", middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles"), h.controller.DeleteGroup)
}
