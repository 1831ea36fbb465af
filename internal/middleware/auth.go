package middleware

import (
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userLocal  = "user"
	actorLocal = "actor"
)

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// RequireTenant ensures the session user belongs to an org and exposes the
// caller as a tenancy.Actor.
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, ok := GetUser(c).(map[string]interface{})
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		userID, err := uuid.Parse(stringOf(m["user_id"]))
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		orgID, err := uuid.Parse(stringOf(m["org_id"]))
		if err != nil {
			return response.Error(c, apperr.CodeForbidden, "Join or create an organization first", fiber.StatusForbidden, nil)
		}
		c.Locals(actorLocal, tenancy.Actor{
			OrgID:  orgID,
			UserID: userID,
			Name:   stringOf(m["fullname"]),
			Role:   stringOf(m["role"]),
		})
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Actor returns the caller set by RequireTenant.
func Actor(c *fiber.Ctx) tenancy.Actor {
	a, _ := c.Locals(actorLocal).(tenancy.Actor)
	return a
}

// SessionUserID returns the session user's id, or uuid.Nil.
func SessionUserID(c *fiber.Ctx) uuid.UUID {
	m, _ := GetUser(c).(map[string]interface{})
	id, err := uuid.Parse(stringOf(m["user_id"]))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}
