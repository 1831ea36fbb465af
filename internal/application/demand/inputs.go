package demand

import (
	"loadplan-backend/internal/domain"

	"github.com/google/uuid"
)

// Loads carries optional per-period quantities. Weekly tenants send days,
// monthly tenants send week-of-month slots.
type Loads struct {
	Day1Loads  *int `json:"day1Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day2Loads  *int `json:"day2Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day3Loads  *int `json:"day3Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day4Loads  *int `json:"day4Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day5Loads  *int `json:"day5Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day6Loads  *int `json:"day6Loads" validate:"omitempty,gte=0,lte=1000000"`
	Day7Loads  *int `json:"day7Loads" validate:"omitempty,gte=0,lte=1000000"`
	Week1Loads *int `json:"week1Loads" validate:"omitempty,gte=0,lte=1000000"`
	Week2Loads *int `json:"week2Loads" validate:"omitempty,gte=0,lte=1000000"`
	Week3Loads *int `json:"week3Loads" validate:"omitempty,gte=0,lte=1000000"`
	Week4Loads *int `json:"week4Loads" validate:"omitempty,gte=0,lte=1000000"`
	Week5Loads *int `json:"week5Loads" validate:"omitempty,gte=0,lte=1000000"`
}

func (l Loads) Patch() domain.PeriodPatch {
	return domain.PeriodPatch{
		Days:  [domain.DaysPerWeek]*int{l.Day1Loads, l.Day2Loads, l.Day3Loads, l.Day4Loads, l.Day5Loads, l.Day6Loads, l.Day7Loads},
		Weeks: [domain.WeeksPerPeriod]*int{l.Week1Loads, l.Week2Loads, l.Week3Loads, l.Week4Loads, l.Week5Loads},
	}
}

// CreateInput is the body of POST /demand. TruckTypeID and TruckTypeIDs are
// merged; at least one truck type is required.
type CreateInput struct {
	PlanningWeekID   string   `json:"planningWeekId" validate:"required,uuid"`
	ClientID         string   `json:"clientId" validate:"required,uuid"`
	PickupCityID     string   `json:"pickupCityId" validate:"required,uuid"`
	DropoffCityID    string   `json:"dropoffCityId" validate:"required,uuid"`
	TruckTypeID      string   `json:"truckTypeId" validate:"omitempty,uuid"`
	TruckTypeIDs     []string `json:"truckTypeIds" validate:"omitempty,max=20,dive,uuid"`
	DemandCategoryID *string  `json:"demandCategoryId" validate:"omitempty,uuid"`
	Loads
}

// UpdateInput is the body of PATCH /demand/:id. Only quantities can change.
type UpdateInput struct {
	Loads
}

// ListFilter narrows GET /demand. Nil fields are not applied.
type ListFilter struct {
	PlanningWeekID *uuid.UUID
	ClientID       *uuid.UUID
	RouteKey       *string
}
