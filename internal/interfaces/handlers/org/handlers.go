package org

import (
	orgsvc "loadplan-backend/internal/application/org"
	"loadplan-backend/internal/pkg/constants"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Service *orgsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// CreateOrg POST /api/v1/orgs/create-org. The session is rotated because the
// caller's org and role changed.
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var req orgsvc.CreateOrgInput
	if err := params.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	userID := middleware.SessionUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	org, err := h.Service.CreateOrg(c.UserContext(), userID, req)
	if err != nil {
		return response.FromError(c, err)
	}

	m, _ := middleware.GetUser(c).(map[string]interface{})
	fullname, _ := m["fullname"].(string)
	email, _ := m["email"].(string)
	orgID := org.OrgID.String()
	err = middleware.StartSession(c, h.Rdb, h.Config, middleware.SessionUser{
		UserID:   userID.String(),
		Fullname: fullname,
		Email:    email,
		Role:     constants.Admin,
		OrgID:    &orgID,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// ViewOrg GET /api/v1/orgs/view-org
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	view, err := h.Service.GetOrg(c.UserContext(), middleware.Actor(c).OrgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization fetched successfully", view, nil)
}

// UpdateOrg PATCH /api/v1/orgs/update-org
func (h *Handlers) UpdateOrg(c *fiber.Ctx) error {
	var req orgsvc.UpdateOrgInput
	if err := params.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	org, err := h.Service.UpdateOrg(c.UserContext(), middleware.Actor(c).OrgID, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization updated successfully", org, nil)
}
