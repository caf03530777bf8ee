package member

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

type MemberController struct {
	MemberService MemberService
}

func NewMemberController(memberService MemberService) *MemberController {
	return &MemberController{MemberService: memberService}
}

// InviteMember godoc
// @Summary      Invite a user to a workspace
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        body body object{user_id=string,metadata=object} true "Invitation"
// @Success      201  {object} WorkspaceMember
// @Failure      409  {string} string "Already a member"
// @Router       /api/workspaces/{workspaceId}/members [post]
func (ctrl *MemberController) InviteMember(c *fiber.Ctx) error {
	var req struct {
		UserID   string                 `json:"user_id"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	m, err := ctrl.MemberService.InviteMember(c.UserContext(), c.Params("workspaceId"), req.UserID, req.Metadata)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already a member of this workspace",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

// GetMember godoc
// @Summary      Get a workspace membership
// @Tags         members
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        userId path string true "User ID"
// @Success      200  {object} WorkspaceMember
// @Failure      404  {string} string "Not found"
// @Router       /api/workspaces/{workspaceId}/members/{userId} [get]
func (ctrl *MemberController) GetMember(c *fiber.Ctx) error {
	m, err := ctrl.MemberService.GetMember(c.UserContext(), c.Params("workspaceId"), c.Params("userId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Membership not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(m)
}

// ListMembers godoc
// @Summary      List workspace members
// @Tags         members
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Success      200  {array} WorkspaceMember
// @Router       /api/workspaces/{workspaceId}/members [get]
func (ctrl *MemberController) ListMembers(c *fiber.Ctx) error {
	members, err := ctrl.MemberService.ListMembers(c.UserContext(), c.Params("workspaceId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(members)
}

// AssignRole godoc
// @Summary      Assign a role to a member
// @Description  Adds a role assignment, optionally expiring for temporary elevation
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        userId path string true "User ID"
// @Param        body body object{role_id=string,expires_at=string} true "Assignment"
// @Success      200  {object} WorkspaceMember
// @Router       /api/workspaces/{workspaceId}/members/{userId}/roles [post]
func (ctrl *MemberController) AssignRole(c *fiber.Ctx) error {
	var req struct {
		RoleID    string     `json:"role_id"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	m, err := ctrl.MemberService.AssignRole(c.UserContext(), c.Params("workspaceId"), c.Params("userId"), req.RoleID, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Membership not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(m)
}

// RevokeRole godoc
// @Summary      Revoke a role from a member
// @Tags         members
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        userId path string true "User ID"
// @Param        roleId path string true "Role ID"
// @Success      200  {object} WorkspaceMember
// @Router       /api/workspaces/{workspaceId}/members/{userId}/roles/{roleId} [delete]
func (ctrl *MemberController) RevokeRole(c *fiber.Ctx) error {
	m, err := ctrl.MemberService.RevokeRole(c.UserContext(), c.Params("workspaceId"), c.Params("userId"), c.Params("roleId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Membership not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(m)
}

// SetActive godoc
// @Summary      Activate or deactivate a membership
// @Description  Inactive members resolve to zero permissions regardless of role assignments
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        userId path string true "User ID"
// @Param        body body object{is_active=bool} true "Active flag"
// @Success      200  {object} WorkspaceMember
// @Router       /api/workspaces/{workspaceId}/members/{userId}/active [put]
func (ctrl *MemberController) SetActive(c *fiber.Ctx) error {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	m, err := ctrl.MemberService.SetActive(c.UserContext(), c.Params("workspaceId"), c.Params("userId"), req.IsActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Membership not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(m)
}

// SetMetadata godoc
// @Summary      Replace membership metadata
// @Description  Metadata attributes feed policy conditions (department, title, ...)
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        workspaceId path string true "Workspace ID"
// @Param        userId path string true "User ID"
// @Param        body body object{metadata=object} true "Metadata"
// @Success      200  {object} WorkspaceMember
// @Router       /api/workspaces/{workspaceId}/members/{userId}/metadata [put]
func (ctrl *MemberController) SetMetadata(c *fiber.Ctx) error {
	var req struct {
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	m, err := ctrl.MemberService.SetMetadata(c.UserContext(), c.Params("workspaceId"), c.Params("userId"), req.Metadata)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Membership not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(m)
}
