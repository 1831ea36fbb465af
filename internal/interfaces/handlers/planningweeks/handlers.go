package planningweeks

import (
	"strconv"
	"time"

	pwsvc "loadplan-backend/internal/application/planningweeks"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *pwsvc.Service
}

type createRequest struct {
	Date string `json:"date" validate:"required"`
}

// Create POST /api/v1/planning-weeks: the period containing date, created on first use.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := params.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return response.FromError(c, err)
	}
	week, err := h.Service.GetOrCreate(c.UserContext(), middleware.Actor(c).OrgID, date)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Planning week ready", week, nil)
}

// List GET /api/v1/planning-weeks?year=
func (h *Handlers) List(c *fiber.Ctx) error {
	year := 0
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			return response.FromError(c, apperr.Validation("Invalid year"))
		}
		year = y
	}
	weeks, err := h.Service.List(c.UserContext(), middleware.Actor(c).OrgID, year)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Planning weeks fetched successfully", weeks, nil)
}

// Get GET /api/v1/planning-weeks/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	week, err := h.Service.Get(c.UserContext(), middleware.Actor(c).OrgID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Planning week fetched successfully", week, nil)
}

// Lock POST /api/v1/planning-weeks/:id/lock
func (h *Handlers) Lock(c *fiber.Ctx) error {
	return h.setLocked(c, true, "Planning week locked")
}

// Unlock POST /api/v1/planning-weeks/:id/unlock
func (h *Handlers) Unlock(c *fiber.Ctx) error {
	return h.setLocked(c, false, "Planning week unlocked")
}

func (h *Handlers) setLocked(c *fiber.Ctx, locked bool, msg string) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	actor := middleware.Actor(c)
	week, err := h.Service.SetLocked(c.UserContext(), actor.OrgID, id, locked, actor.UserRef())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, msg, week, nil)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
}
