package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	AuditService AuditService
}

func NewAuditController(auditService AuditService) *AuditController {
	return &AuditController{AuditService: auditService}
}

// ListLogs godoc
// @Summary      List audit logs
// @Description  List recent audit log entries, optionally filtered by entity kind
// @Tags         audit
// @Produce      json
// @Param        entity query string false "Entity kind (role, policy, ...)"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Page size"
// @Success      200  {array} models.AuditLog
// @Failure      500  {string} string "Failed to list logs"
// @Router       /api/audit [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	filters := map[string]interface{}{}
	if entity := c.Query("entity"); entity != "" {
		filters["entity"] = entity
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	logs, err := ctrl.AuditService.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(logs)
}
