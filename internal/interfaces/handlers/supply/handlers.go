package supply

import (
	"loadplan-backend/internal/application/gaps"
	supplysvc "loadplan-backend/internal/application/supply"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *supplysvc.Service
	Gaps    *gaps.Engine
}

// GapTargets GET /api/v1/supply/gaps?planningWeekId=
func (h *Handlers) GapTargets(c *fiber.Ctx) error {
	weekID, err := params.QueryUUID(c, "planningWeekId")
	if err != nil {
		return response.FromError(c, err)
	}
	if weekID == nil {
		return response.FromError(c, apperr.ValidationFields("planningWeekId is required",
			map[string]string{"planningWeekId": "planningWeekId is required"}))
	}
	out, err := h.Gaps.ComputeGaps(c.UserContext(), middleware.Actor(c).OrgID, *weekID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Gap targets fetched successfully", out, nil)
}

// List GET /api/v1/supply?planningWeekId=&supplierId=&routeKey=&page=&pageSize=
func (h *Handlers) List(c *fiber.Ctx) error {
	var f supplysvc.ListFilter
	var err error
	if f.PlanningWeekID, err = params.QueryUUID(c, "planningWeekId"); err != nil {
		return response.FromError(c, err)
	}
	if f.SupplierID, err = params.QueryUUID(c, "supplierId"); err != nil {
		return response.FromError(c, err)
	}
	f.RouteKey = params.QueryString(c, "routeKey")

	page, size := params.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), middleware.Actor(c).OrgID, f, page, size)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Supply commitments fetched successfully", rows, response.NewPage(page, size, total))
}

// Create POST /api/v1/supply
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in supplysvc.CreateInput
	if err := params.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Supply commitment created successfully", v, nil)
}

// Get GET /api/v1/supply/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Get(c.UserContext(), middleware.Actor(c).OrgID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Supply commitment fetched successfully", v, nil)
}

// Update PATCH /api/v1/supply/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in supplysvc.UpdateInput
	if err := params.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Update(c.UserContext(), middleware.Actor(c), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Supply commitment updated successfully", v, nil)
}

// Delete DELETE /api/v1/supply/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), middleware.Actor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Supply commitment deleted successfully", fiber.Map{"id": id}, nil)
}
