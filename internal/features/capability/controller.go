package capability

import (
	"go-taskhub/internal/authz"
	"go-taskhub/internal/middleware"
	"go-taskhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckRequest is one capability question posed over HTTP.
type CheckRequest struct {
	Permission    string                 `json:"permission"`
	Resource      string                 `json:"resource,omitempty"`
	Action        string                 `json:"action,omitempty"`
	ResourceAttrs map[string]interface{} `json:"resource_attrs,omitempty"`
	EnvAttrs      map[string]interface{} `json:"env_attrs,omitempty"`
}

// BatchCheckRequest asks several questions at once. Mode "any" answers true
// when at least one check passes, "all" (default) when every check passes.
type BatchCheckRequest struct {
	Mode   string         `json:"mode,omitempty"`
	Checks []CheckRequest `json:"checks"`
}

type CapabilityController struct {
	engine *authz.Engine
}

func NewCapabilityController(engine *authz.Engine) *CapabilityController {
	return &CapabilityController{engine: engine}
}

func (ctrl *CapabilityController) subject(c *fiber.Ctx) (primitive.ObjectID, primitive.ObjectID, error) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "Invalid subject id")
	}
	workspaceID, ok := middleware.WorkspaceFromLocals(c)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "Workspace id required")
	}
	return userID, workspaceID, nil
}

func toCheck(req CheckRequest) authz.PermissionCheck {
	return authz.PermissionCheck{
		Permission: req.Permission,
		Input: authz.CheckInput{
			Resource:      req.Resource,
			Action:        req.Action,
			ResourceAttrs: req.ResourceAttrs,
			EnvAttrs:      req.EnvAttrs,
		},
	}
}

// Can godoc
// @Summary      Quick capability probe
// @Description  Flat permission-union lookup for UI gating, no policy evaluation
// @Tags         capabilities
// @Produce      json
// @Param        permission query string true "Permission key, e.g. canEditDates or task:delete"
// @Success      200  {object} map[string]bool
// @Router       /api/capabilities/can [get]
func (ctrl *CapabilityController) Can(c *fiber.Ctx) error {
	userID, workspaceID, err := ctrl.subject(c)
	if err != nil {
		return err
	}
	permission := c.Query("permission")
	if permission == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "permission query param required",
		})
	}
	allowed := ctrl.engine.Can(c.UserContext(), userID, workspaceID, permission)
	return c.JSON(fiber.Map{"allowed": allowed})
}

// Check godoc
// @Summary      Full authorization decision
// @Description  Permission union plus policy evaluation with request attributes
// @Tags         capabilities
// @Accept       json
// @Produce      json
// @Param        check body CheckRequest true "Check"
// @Success      200  {object} map[string]bool
// @Router       /api/capabilities/check [post]
func (ctrl *CapabilityController) Check(c *fiber.Ctx) error {
	userID, workspaceID, err := ctrl.subject(c)
	if err != nil {
		return err
	}
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Permission == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "permission required",
		})
	}
	check := toCheck(req)
	allowed := ctrl.engine.HasCapability(c.UserContext(), userID, workspaceID, check.Permission, check.Input)
	return c.JSON(fiber.Map{"allowed": allowed})
}

// BatchCheck godoc
// @Summary      Batch authorization decisions
// @Description  Evaluates several checks against one grant-set resolution
// @Tags         capabilities
// @Accept       json
// @Produce      json
// @Param        batch body BatchCheckRequest true "Batch"
// @Success      200  {object} map[string]bool
// @Router       /api/capabilities/batch [post]
func (ctrl *CapabilityController) BatchCheck(c *fiber.Ctx) error {
	userID, workspaceID, err := ctrl.subject(c)
	if err != nil {
		return err
	}
	var req BatchCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	checks := make([]authz.PermissionCheck, 0, len(req.Checks))
	for _, cr := range req.Checks {
		checks = append(checks, toCheck(cr))
	}

	var allowed bool
	if req.Mode == "any" {
		allowed = ctrl.engine.CanAny(c.UserContext(), userID, workspaceID, checks)
	} else {
		allowed = ctrl.engine.CanAll(c.UserContext(), userID, workspaceID, checks)
	}
	return c.JSON(fiber.Map{"allowed": allowed})
}

// Grants godoc
// @Summary      List effective grants
// @Description  The caller's flat permission union, contributing roles and super-admin flag
// @Tags         capabilities
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /api/capabilities [get]
func (ctrl *CapabilityController) Grants(c *fiber.Ctx) error {
	userID, workspaceID, err := ctrl.subject(c)
	if err != nil {
		return err
	}
	set, gerr := ctrl.engine.Grants(c.UserContext(), userID, workspaceID)
	if gerr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to resolve grants",
		})
	}

	roles := make([]fiber.Map, 0, len(set.Roles))
	for _, r := range set.Roles {
		roles = append(roles, fiber.Map{"id": r.ID.Hex(), "name": r.Name})
	}
	return c.JSON(fiber.Map{
		"permissions": set.PermissionList(),
		"roles":       roles,
		"super_admin": set.SuperAdmin,
		"version":     set.Vector.Hash(),
	})
}

// Version godoc
// @Summary      Current grant version vector
// @Description  The version vector and its hash for the caller in this workspace
// @Tags         capabilities
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /api/capabilities/version [get]
func (ctrl *CapabilityController) Version(c *fiber.Ctx) error {
	userID, workspaceID, err := ctrl.subject(c)
	if err != nil {
		return err
	}
	vec, verr := ctrl.engine.CurrentVersionVector(c.UserContext(), userID, workspaceID)
	if verr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to compute version vector",
		})
	}
	return c.JSON(fiber.Map{
		"hash":    vec.Hash(),
		"entries": vec.Entries,
	})
}
