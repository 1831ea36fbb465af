// Package params parses path, query and body input for handlers.
package params

import (
	"strconv"

	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"
	"loadplan-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Bind decodes a JSON body into dst and validates its tags.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return apperr.Validation("Request body is required")
	}
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return validation.Struct(dst)
}

// ID parses a uuid path parameter.
func ID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + name)
	}
	return id, nil
}

// QueryUUID parses an optional uuid query parameter.
func QueryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid " + name)
	}
	return &id, nil
}

// QueryString returns an optional query parameter.
func QueryString(c *fiber.Ctx, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// Page reads page and pageSize, clamped to the list bounds.
func Page(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	return response.NormalizePage(page, size)
}
