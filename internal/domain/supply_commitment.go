package domain

import (
	"time"

	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplyCommitment is a supplier's committed capacity on a route. It joins
// forecasts by RouteKey only; there is no foreign key to cities or forecasts.
type SupplyCommitment struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID            uuid.UUID    `gorm:"column:org_id;type:uuid;not null;index:idx_supply_commitment_route,priority:1" json:"org_id"`
	PlanningWeekID   uuid.UUID    `gorm:"column:planning_week_id;type:uuid;not null;index:idx_supply_commitment_route,priority:2" json:"planningWeekId"`
	SupplierID       uuid.UUID    `gorm:"column:supplier_id;type:uuid;not null;index" json:"supplierId"`
	RouteKey         routekey.Key `gorm:"column:route_key;type:varchar(255);not null;index:idx_supply_commitment_route,priority:3" json:"routeKey"`
	PeriodQuantities `gorm:"embedded"`
	TotalCommitted   int        `gorm:"column:total_committed;not null;default:0" json:"totalCommitted"`
	Notes            *string    `gorm:"column:notes" json:"notes"`
	CreatedBy        *uuid.UUID `gorm:"column:created_by;type:uuid" json:"createdBy"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (SupplyCommitment) TableName() string {
	return "SupplyCommitments"
}

func (s *SupplyCommitment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
