package member

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/config"
	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MemberApi struct {
	controller *MemberController
	config     *config.Config
	engine     *authz.Engine
}

func NewMemberApi(controller *MemberController, cfg *config.Config, engine *authz.Engine) *MemberApi {
	return &MemberApi{
		controller: controller,
		config:     cfg,
		engine:     engine,
	}
}

// Setup registers member routes
func (h *MemberApi) Setup(app *fiber.App) {
	members := app.Group("/api/workspaces/:workspaceId/members",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.WorkspaceMiddleware(),
	)

	manage := middleware.RequirePermission(h.engine, h.config.SkipAuth, "canManageMembers")

	members.Get("/", manage, h.controller.ListMembers)
	members.Post("/", manage, h.controller.InviteMember)
	members.Get("/:userId", manage, h.controller.GetMember)
	members.Post("/:userId/roles", manage, h.controller.AssignRole)
	members.Delete("/:userId/roles/:roleId", manage, h.controller.RevokeRole)
	members.Put("/:userId/active", manage, h.controller.SetActive)
	members.Put("/:userId/metadata", manage, h.controller.SetMetadata)
}
