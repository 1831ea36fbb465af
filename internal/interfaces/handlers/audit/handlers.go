package audit

import (
	auditsvc "loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *auditsvc.Service
}

// List GET /api/v1/audit-logs?entityType=&entityId=&page=&pageSize=
func (h *Handlers) List(c *fiber.Ctx) error {
	f := auditsvc.Filter{EntityType: c.Query("entityType"), EntityID: c.Query("entityId")}
	page, size := params.Page(c)
	logs, total, err := h.Service.List(c.UserContext(), middleware.Actor(c).OrgID, f, page, size)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Audit logs fetched successfully", logs, response.NewPage(page, size, total))
}
