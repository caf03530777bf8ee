package permgroup

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type GroupController struct {
	GroupService GroupService
}

func NewGroupController(groupService GroupService) *GroupController {
	return &GroupController{GroupService: groupService}
}

// CreateGroup godoc
// @Summary      Create a permission group
// @Description  Create a named bundle of flat permission keys
// @Tags         permission-groups
// @Accept       json
// @Produce      json
// @Param        group body PermissionGroup true "Permission group"
// @Success      201  {object} PermissionGroup
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/permission-groups [post]
func (ctrl *GroupController) CreateGroup(c *fiber.Ctx) error {
	var group PermissionGroup
	if err := c.BodyParser(&group); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := ctrl.GroupService.CreateGroup(c.UserContext(), &group)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetGroup godoc
// @Summary      Get a permission group
// @Tags         permission-groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200  {object} PermissionGroup
// @Failure      404  {string} string "Not found"
// @Router       /api/permission-groups/{id} [get]
func (ctrl *GroupController) GetGroup(c *fiber.Ctx) error {
	group, err := ctrl.GroupService.GetGroupByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Permission group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(group)
}

// ListGroups godoc
// @Summary      List permission groups
// @Tags         permission-groups
// @Produce      json
// @Success      200  {array} PermissionGroup
// @Router       /api/permission-groups [get]
func (ctrl *GroupController) ListGroups(c *fiber.Ctx) error {
	groups, err := ctrl.GroupService.ListGroups(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(groups)
}

// SetPermissions godoc
// @Summary      Replace a group's permission set
// @Description  Replaces the complete permission set and bumps the group version
// @Tags         permission-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        body body object{permissions=[]string} true "New permission set"
// @Success      200  {object} PermissionGroup
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/permission-groups/{id}/permissions [put]
func (ctrl *GroupController) SetPermissions(c *fiber.Ctx) error {
	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.GroupService.SetPermissions(c.UserContext(), c.Params("id"), req.Permissions)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Permission group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// DeleteGroup godoc
// @Summary      Delete a permission group
// @Tags         permission-groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200  {object} map[string]string
// @Router       /api/permission-groups/{id} [delete]
func (ctrl *GroupController) DeleteGroup(c *fiber.Ctx) error {
	if err := ctrl.GroupService.DeleteGroup(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Permission group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Permission group deleted successfully",
	})
}
