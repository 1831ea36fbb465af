package auth

import (
	authsvc "loadplan-backend/internal/application/auth"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Login POST /api/v1/auth/login: authenticate, start a new session, set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, authsvc.ErrEmailPasswordRequired)
	}
	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeUnauthorized {
			log.Info().Str("path", c.Path()).Msg("login rejected")
		}
		return response.FromError(c, err)
	}

	var orgID *string
	if user.OrgID != nil {
		s := user.OrgID.String()
		orgID = &s
	}
	err = middleware.StartSession(c, h.Rdb, h.Config, middleware.SessionUser{
		UserID:   user.UserID.String(),
		Fullname: user.Fullname,
		Email:    user.Email,
		Role:     user.Role,
		OrgID:    orgID,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Login successful", fiber.Map{
		"user": authsvc.SessionUserShape{
			UserID:   user.UserID.String(),
			Fullname: user.Fullname,
			Email:    user.Email,
			Role:     user.Role,
			OrgID:    orgID,
		},
	}, nil)
}

// Me GET /api/v1/auth/me: the current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	if sessionID != "" {
		var userID string
		if u, err := authsvc.VerifyUser(middleware.GetUser(c)); err == nil {
			userID = u.UserID
		}
		middleware.ForgetSession(c.UserContext(), h.Rdb, userID, sessionID)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
