// Package cascade removes supply commitments left without demand.
package cascade

import (
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RouteRef identifies one route in one planning week of a tenant.
type RouteRef struct {
	OrgID          uuid.UUID
	PlanningWeekID uuid.UUID
	RouteKey       routekey.Key
}

// OrphanedCommitments must run in the transaction that deleted a forecast.
// When no forecast remains on the route it deletes every commitment on it in
// one statement and returns how many were removed.
func OrphanedCommitments(tx *gorm.DB, r RouteRef) (int64, error) {
	var remaining int64
	err := tenancy.Scoped(tx.Model(&domain.DemandForecast{}), r.OrgID).
		Where("planning_week_id = ? AND route_key = ?", r.PlanningWeekID, r.RouteKey).
		Count(&remaining).Error
	if err != nil {
		return 0, err
	}
	if remaining > 0 {
		return 0, nil
	}
	res := tenancy.Scoped(tx, r.OrgID).
		Where("planning_week_id = ? AND route_key = ?", r.PlanningWeekID, r.RouteKey).
		Delete(&domain.SupplyCommitment{})
	return res.RowsAffected, res.Error
}
