package user

import (
	usersvc "loadplan-backend/internal/application/user"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds the user service and session config for create-user.
type Handlers struct {
	Service *usersvc.Service
	Config  middleware.SessionConfig
}

// CreateUser POST /api/v1/users/create-user: register and log in.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req usersvc.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, apperr.Validation("Missing required fields"))
	}
	u, err := h.Service.CreateUser(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	err = middleware.StartSession(c, h.Service.Rdb, h.Config, middleware.SessionUser{
		UserID:   u.UserID.String(),
		Fullname: u.Fullname,
		Email:    u.Email,
		Role:     u.Role,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// ViewUser GET /api/v1/users/view-user: the logged-in user.
func (h *Handlers) ViewUser(c *fiber.Ctx) error {
	userID := middleware.SessionUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.ViewUser(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User fetched successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// ListMembers GET /api/v1/users/members: users of the caller's org.
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	users, err := h.Service.ListMembers(c.UserContext(), middleware.Actor(c).OrgID)
	if err != nil {
		return response.FromError(c, err)
	}
	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		out = append(out, safeUser(&users[i]))
	}
	return response.Success(c, "Members fetched successfully", out, nil)
}

// UpdateRole PATCH /api/v1/users/update-role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var req usersvc.UpdateRoleInput
	if err := params.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.UpdateRole(c.UserContext(), middleware.Actor(c), uuid.MustParse(req.UserID), req.Role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

func safeUser(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":   u.UserID,
		"user_name": u.UserName,
		"fullname":  u.Fullname,
		"email":     u.Email,
		"role":      u.Role,
		"org_id":    u.OrgID,
		"createdAt": u.CreatedAt,
	}
}
