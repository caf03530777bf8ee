package review

import (
	"fmt"

	"go-taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReviewController struct {
	ReviewService ReviewService
}

func NewReviewController(reviewService ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

// ExportAccessReview godoc
// @Summary      Export an access review workbook
// @Description  One row per member with their effective permissions after inheritance and expiry
// @Tags         access-review
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        workspaceId path string true "Workspace ID"
// @Success      200  {file} binary
// @Router       /api/workspaces/{workspaceId}/access-review [get]
func (ctrl *ReviewController) ExportAccessReview(c *fiber.Ctx) error {
	workspaceID, ok := middleware.WorkspaceFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Workspace id required",
		})
	}

	data, filename, err := ctrl.ReviewService.ExportWorkspaceAccess(c.UserContext(), workspaceID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
