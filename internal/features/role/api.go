package role

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	controller *RoleController
	config     *config.Config
	engine     *authz.Engine
}

func NewRoleApi(controller *RoleController, cfg *config.Config, engine *authz.Engine) *RoleApi {
	return &RoleApi{
		controller: controller,
		config:     cfg,
		engine:     engine,
	}
}

// Setup registers role routes
func (h *RoleApi) Setup(app *fiber.App) {
	roles := app.Group("/api/roles",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
	)

	manage := middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageRoles")

	roles.Get("/", manage, h.controller.ListRoles)
	roles.Post("/", manage, h.controller.CreateRole)
	roles.Get("/:id", manage, h.controller.GetRole)
	roles.Put("/:id", manage, h.controller.UpdateRole)
	roles.Put("/:id/parent", manage, h.controller.SetParent)
	roles.Put("/:id/permission-groups", manage, h.controller.SetPermissionGroups)
	roles.Put("/:id/policies", manage, h.controller.SetPolicies)
	roles.Put("/:id/disabled", manage, h.controller.DisableRole)
	roles.Delete("/:id", manage, h.controller.DeleteRole)
}
