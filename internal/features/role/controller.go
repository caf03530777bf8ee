package role

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type RoleController struct {
	RoleService RoleService
}

func NewRoleController(roleService RoleService) *RoleController {
	return &RoleController{RoleService: roleService}
}

// CreateRole godoc
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        role body Role true "Role object"
// @Success      201  {object} Role
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/roles [post]
func (ctrl *RoleController) CreateRole(c *fiber.Ctx) error {
	var role Role
	if err := c.BodyParser(&role); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := ctrl.RoleService.CreateRole(c.UserContext(), &role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetRole godoc
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {object} Role
// @Failure      404  {string} string "Not found"
// @Router       /api/roles/{id} [get]
func (ctrl *RoleController) GetRole(c *fiber.Ctx) error {
	role, err := ctrl.RoleService.GetRoleByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(role)
}

// ListRoles godoc
// @Summary      List roles
// @Description  List roles visible to a workspace (workspace-scoped plus global)
// @Tags         roles
// @Produce      json
// @Param        X-Workspace-ID header string false "Workspace ID"
// @Success      200  {array} Role
// @Router       /api/roles [get]
func (ctrl *RoleController) ListRoles(c *fiber.Ctx) error {
	roles, err := ctrl.RoleService.ListRoles(c.UserContext(), c.Get("X-Workspace-ID"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(roles)
}

// UpdateRole godoc
// @Summary      Rename a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body object{name=string,description=string} true "New name"
// @Success      200  {object} Role
// @Router       /api/roles/{id} [put]
func (ctrl *RoleController) UpdateRole(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.RoleService.UpdateRole(c.UserContext(), c.Params("id"), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// SetParent godoc
// @Summary      Re-parent a role
// @Description  Sets or clears the role's parent; rejected when it would create an inheritance cycle
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body object{parent_role_id=string} true "Parent role ID (null to clear)"
// @Success      200  {object} Role
// @Router       /api/roles/{id}/parent [put]
func (ctrl *RoleController) SetParent(c *fiber.Ctx) error {
	var req struct {
		ParentRoleID *string `json:"parent_role_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.RoleService.SetParent(c.UserContext(), c.Params("id"), req.ParentRoleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// SetPermissionGroups godoc
// @Summary      Replace a role's permission group attachments
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body object{permission_group_ids=[]string} true "Group IDs"
// @Success      200  {object} Role
// @Router       /api/roles/{id}/permission-groups [put]
func (ctrl *RoleController) SetPermissionGroups(c *fiber.Ctx) error {
	var req struct {
		PermissionGroupIDs []string `json:"permission_group_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.RoleService.SetPermissionGroups(c.UserContext(), c.Params("id"), req.PermissionGroupIDs)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// SetPolicies godoc
// @Summary      Replace a role's policy attachments
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body object{policy_ids=[]string} true "Policy IDs"
// @Success      200  {object} Role
// @Router       /api/roles/{id}/policies [put]
func (ctrl *RoleController) SetPolicies(c *fiber.Ctx) error {
	var req struct {
		PolicyIDs []string `json:"policy_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.RoleService.SetPolicies(c.UserContext(), c.Params("id"), req.PolicyIDs)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// DisableRole godoc
// @Summary      Soft-disable or re-enable a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body object{disabled=bool} true "Disabled flag"
// @Success      200  {object} Role
// @Router       /api/roles/{id}/disabled [put]
func (ctrl *RoleController) DisableRole(c *fiber.Ctx) error {
	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.RoleService.DisableRole(c.UserContext(), c.Params("id"), req.Disabled)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// DeleteRole godoc
// @Summary      Delete a role
// @Description  Rejected for system roles, roles with children, and roles still assigned to members
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {object} map[string]string
// @Router       /api/roles/{id} [delete]
func (ctrl *RoleController) DeleteRole(c *fiber.Ctx) error {
	if err := ctrl.RoleService.DeleteRole(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Role deleted successfully",
	})
}
