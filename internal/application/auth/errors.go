package auth

import "loadplan-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = apperr.Validation("Email and password are required")
	ErrInvalidCredentials    = apperr.Unauthorized("Invalid email or password")
	ErrNotAuthenticated      = apperr.Unauthorized("Not authenticated")
)
