package demand

import (
	demandsvc "loadplan-backend/internal/application/demand"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *demandsvc.Service
}

// List GET /api/v1/demand?planningWeekId=&clientId=&routeKey=&page=&pageSize=
func (h *Handlers) List(c *fiber.Ctx) error {
	var f demandsvc.ListFilter
	var err error
	if f.PlanningWeekID, err = params.QueryUUID(c, "planningWeekId"); err != nil {
		return response.FromError(c, err)
	}
	if f.ClientID, err = params.QueryUUID(c, "clientId"); err != nil {
		return response.FromError(c, err)
	}
	f.RouteKey = params.QueryString(c, "routeKey")

	page, size := params.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), middleware.Actor(c).OrgID, f, page, size)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Demand forecasts fetched successfully", rows, response.NewPage(page, size, total))
}

// Create POST /api/v1/demand
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in demandsvc.CreateInput
	if err := params.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Demand forecast created successfully", v, nil)
}

// Get GET /api/v1/demand/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Get(c.UserContext(), middleware.Actor(c).OrgID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Demand forecast fetched successfully", v, nil)
}

// Update PATCH /api/v1/demand/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in demandsvc.UpdateInput
	if err := params.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Service.Update(c.UserContext(), middleware.Actor(c), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Demand forecast updated successfully", v, nil)
}

// Delete DELETE /api/v1/demand/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.Delete(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Demand forecast deleted successfully", res, nil)
}
