package policy

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type PolicyController struct {
	PolicyService PolicyService
}

func NewPolicyController(policyService PolicyService) *PolicyController {
	return &PolicyController{PolicyService: policyService}
}

// CreatePolicy godoc
// @Summary      Create a policy
// @Description  Create an attribute-based allow/deny rule
// @Tags         policies
// @Accept       json
// @Produce      json
// @Param        policy body Policy true "Policy object"
// @Success      201  {object} Policy
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/policies [post]
func (ctrl *PolicyController) CreatePolicy(c *fiber.Ctx) error {
	var p Policy
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := ctrl.PolicyService.CreatePolicy(c.UserContext(), &p)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetPolicy godoc
// @Summary      Get a policy
// @Tags         policies
// @Produce      json
// @Param        id path string true "Policy ID"
// @Success      200  {object} Policy
// @Failure      404  {string} string "Not found"
// @Router       /api/policies/{id} [get]
func (ctrl *PolicyController) GetPolicy(c *fiber.Ctx) error {
	p, err := ctrl.PolicyService.GetPolicyByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Policy not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(p)
}

// ListPolicies godoc
// @Summary      List policies
// @Description  List policies visible to a workspace (workspace-scoped plus global)
// @Tags         policies
// @Produce      json
// @Param        X-Workspace-ID header string false "Workspace ID"
// @Success      200  {array} Policy
// @Router       /api/policies [get]
func (ctrl *PolicyController) ListPolicies(c *fiber.Ctx) error {
	policies, err := ctrl.PolicyService.ListPolicies(c.UserContext(), c.Get("X-Workspace-ID"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(policies)
}

// UpdatePolicy godoc
// @Summary      Update a policy
// @Tags         policies
// @Accept       json
// @Produce      json
// @Param        id path string true "Policy ID"
// @Param        policy body Policy true "Policy object"
// @Success      200  {object} Policy
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/policies/{id} [put]
func (ctrl *PolicyController) UpdatePolicy(c *fiber.Ctx) error {
	var p Policy
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := ctrl.PolicyService.UpdatePolicy(c.UserContext(), c.Params("id"), &p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Policy not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

// DeletePolicy godoc
// @Summary      Delete a policy
// @Tags         policies
// @Produce      json
// @Param        id path string true "Policy ID"
// @Success      200  {object} map[string]string
// @Router       /api/policies/{id} [delete]
func (ctrl *PolicyController) DeletePolicy(c *fiber.Ctx) error {
	if err := ctrl.PolicyService.DeletePolicy(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Policy not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Policy deleted successfully",
	})
}
