package org

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service encapsulates org-related operations.
type Service struct {
	DB *gorm.DB
}

// CreateOrgInput is the create-org payload. PlanningCycle defaults to weekly.
type CreateOrgInput struct {
	OrgName       string `json:"org_name" validate:"required,max=120"`
	PlanningCycle string `json:"planning_cycle" validate:"omitempty,oneof=weekly monthly"`
	WeekStartDay  *int   `json:"week_start_day" validate:"omitempty,gte=0,lte=6"`
}

// UpdateOrgInput carries the editable org settings; nil fields are left unchanged.
type UpdateOrgInput struct {
	OrgName       *string `json:"org_name" validate:"omitempty,max=120"`
	PlanningCycle *string `json:"planning_cycle" validate:"omitempty,oneof=weekly monthly"`
	WeekStartDay  *int    `json:"week_start_day" validate:"omitempty,gte=0,lte=6"`
}

// Member is an org user as listed by view-org.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Fullname string    `json:"fullname"`
	Email    string    `json:"email"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
}

// View is an org with its members.
type View struct {
	domain.Org
	Employees []Member `json:"employees"`
}

var nonLetters = regexp.MustCompile(`[^A-Za-z]`)

// generateOrgCode builds a short code: two letters of the name plus six hex digits of the id.
func generateOrgCode(orgName string, orgID uuid.UUID) string {
	prefix := strings.ToUpper(nonLetters.ReplaceAllString(orgName, ""))
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	for len(prefix) < 2 {
		prefix += "X"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(orgID.String(), "-", ""))[:6]
	return prefix + "-" + suffix
}

// CreateOrg creates an organization and makes the creator its admin. A user
// already attached to an org cannot create another.
func (s *Service) CreateOrg(ctx context.Context, userID uuid.UUID, in CreateOrgInput) (*domain.Org, error) {
	name := strings.Join(strings.Fields(in.OrgName), " ")
	if name == "" {
		return nil, apperr.Validation("org_name is required")
	}
	cycle := in.PlanningCycle
	if cycle == "" {
		cycle = domain.CycleWeekly
	}
	if !domain.IsValidCycle(cycle) {
		return nil, apperr.Validation("planning_cycle must be weekly or monthly")
	}
	startDay := 0
	if in.WeekStartDay != nil {
		startDay = *in.WeekStartDay
	}
	if startDay < 0 || startDay > 6 {
		return nil, apperr.Validation("week_start_day must be between 0 and 6")
	}

	orgID := uuid.New()
	org := &domain.Org{
		OrgID:         orgID,
		OrgName:       name,
		OrgCode:       generateOrgCode(name, orgID),
		PlanningCycle: cycle,
		WeekStartDay:  startDay,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.Where("user_id = ?", userID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return err
		}
		if u.OrgID != nil {
			return apperr.Validation("User already belongs to an organization")
		}
		var n int64
		if err := tx.Model(&domain.Org{}).Where("LOWER(org_name) = LOWER(?)", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate("An organization with this name already exists")
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).Where("user_id = ?", userID).
			Updates(map[string]interface{}{"org_id": org.OrgID, "role": constants.Admin}).Error
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrg returns the org with its members.
func (s *Service) GetOrg(ctx context.Context, orgID uuid.UUID) (*View, error) {
	var org domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Org not found")
		}
		return nil, err
	}
	view := &View{Org: org}
	err := s.DB.WithContext(ctx).Model(&domain.User{}).
		Select("user_id, fullname, email, user_name, role").
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Scan(&view.Employees).Error
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateOrg changes name, planning cycle or week start day. Existing planning
// periods keep the boundaries they were created with.
func (s *Service) UpdateOrg(ctx context.Context, orgID uuid.UUID, in UpdateOrgInput) (*domain.Org, error) {
	upd := map[string]interface{}{}
	if in.OrgName != nil {
		name := strings.Join(strings.Fields(*in.OrgName), " ")
		if name == "" {
			return nil, apperr.Validation("org_name cannot be empty")
		}
		upd["org_name"] = name
	}
	if in.PlanningCycle != nil {
		if !domain.IsValidCycle(*in.PlanningCycle) {
			return nil, apperr.Validation("planning_cycle must be weekly or monthly")
		}
		upd["planning_cycle"] = *in.PlanningCycle
	}
	if in.WeekStartDay != nil {
		if *in.WeekStartDay < 0 || *in.WeekStartDay > 6 {
			return nil, apperr.Validation("week_start_day must be between 0 and 6")
		}
		upd["week_start_day"] = *in.WeekStartDay
	}
	if len(upd) == 0 {
		return nil, apperr.Validation("No update fields provided")
	}

	res := s.DB.WithContext(ctx).Model(&domain.Org{}).Where("org_id = ?", orgID).Updates(upd)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Org not found")
	}
	var org domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
