package middleware

import (
	"errors"

	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var codeByStatus = map[int]string{
	fiber.StatusBadRequest:       apperr.CodeValidation,
	fiber.StatusUnauthorized:     apperr.CodeUnauthorized,
	fiber.StatusForbidden:        apperr.CodeForbidden,
	fiber.StatusNotFound:         apperr.CodeNotFound,
	fiber.StatusMethodNotAllowed: apperr.CodeNotFound,
	fiber.StatusConflict:         apperr.CodeDuplicate,
}

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, ok := codeByStatus[fe.Code]
		if !ok {
			code = apperr.CodeInternal
		}
		return response.Error(c, code, fe.Message, fe.Code, nil)
	}
	return response.FromError(c, err)
}
