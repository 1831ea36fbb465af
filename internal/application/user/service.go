package user

import (
	"context"
	"errors"
	"strings"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/constants"
	"loadplan-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Service holds DB and Redis for user operations.
type Service struct {
	DB    *gorm.DB
	Rdb   *redis.Client
	Audit audit.Recorder
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// CreateUser registers a user without an org. Returns the created model (caller hides password_hash).
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	userName := strings.TrimSpace(in.UserName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullname := strings.Join(strings.Fields(in.Fullname), " ")
	switch {
	case userName == "":
		return nil, apperr.Validation("Username is required")
	case !validation.IsValidEmail(email):
		return nil, apperr.Validation("Invalid email format")
	case !validation.IsValidPassword(in.Password):
		return nil, apperr.Validation("Password must be at least 8 characters with a letter, a digit and a special character")
	case fullname == "":
		return nil, apperr.Validation("Full name is required")
	case !validation.IsValidFullname(fullname):
		return nil, apperr.Validation("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperr.Duplicate("Email already registered")
	}
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_name = ?", userName).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperr.Duplicate("Username already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     cases.Title(language.Und).String(fullname),
		Role:         constants.Viewer,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ViewUser returns the user by id.
func (s *Service) ViewUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

// ListMembers returns the users of an org ordered by name.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("fullname ASC").Find(&users).Error
	return users, err
}

// UpdateRoleInput carries the member and the role to assign.
type UpdateRoleInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=admin demand_planner supply_planner viewer"`
}

// UpdateRole assigns a role to a member of the actor's org and logs the member out
// of every session so the new role applies on next login.
func (s *Service) UpdateRole(ctx context.Context, actor tenancy.Actor, targetID uuid.UUID, role string) (*domain.User, error) {
	if !constants.IsValidRole(role) {
		return nil, apperr.Validation("Invalid role")
	}
	if targetID == actor.UserID {
		return nil, apperr.Forbidden("Users cannot modify their own role")
	}
	var target domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", targetID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return err
		}
		if target.OrgID == nil || *target.OrgID != actor.OrgID {
			return apperr.Forbidden("Cannot modify users outside your organization")
		}
		if target.Role == constants.Admin && role != constants.Admin {
			var admins int64
			if err := tx.Model(&domain.User{}).Where("org_id = ? AND role = ?", actor.OrgID, constants.Admin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return apperr.Validation("Organization must have at least one admin")
			}
		}
		target.Role = role
		return tx.Model(&target).Update("role", role).Error
	})
	if err != nil {
		return nil, err
	}
	if s.Rdb != nil {
		middleware.DestroyUserSessions(ctx, s.Rdb, targetID.String())
	}
	return &target, nil
}
