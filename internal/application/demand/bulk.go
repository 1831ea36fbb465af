package demand

import (
	"context"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/cascade"
	"loadplan-backend/internal/application/planningweeks"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckDependencies counts, per forecast in an unlocked week, the supply
// commitments on its route that a delete could cascade to.
func (s *Service) CheckDependencies(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db := s.DB.WithContext(ctx)
	var forecasts []domain.DemandForecast
	if err := db.Table(`"DemandForecasts" AS f`).
		Select("f.*").
		Joins(`JOIN "PlanningWeeks" AS w ON w.id = f.planning_week_id`).
		Where("f.org_id = ? AND w.is_locked = ? AND f.id IN ?", orgID, false, ids).
		Scan(&forecasts).Error; err != nil {
		return nil, err
	}
	if len(forecasts) == 0 {
		return out, nil
	}

	var weekIDs, keys []interface{}
	for _, f := range forecasts {
		weekIDs = append(weekIDs, f.PlanningWeekID)
		keys = append(keys, f.RouteKey)
	}
	var rows []struct {
		PlanningWeekID uuid.UUID
		RouteKey       routekey.Key
		N              int64
	}
	if err := tenancy.Scoped(db.Model(&domain.SupplyCommitment{}), orgID).
		Select("planning_week_id, route_key, COUNT(*) AS n").
		Where("planning_week_id IN ? AND route_key IN ?", weekIDs, keys).
		Group("planning_week_id, route_key").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	type routeID struct {
		week uuid.UUID
		key  routekey.Key
	}
	counts := make(map[routeID]int64, len(rows))
	for _, r := range rows {
		counts[routeID{r.PlanningWeekID, r.RouteKey}] = r.N
	}
	for _, f := range forecasts {
		if n := counts[routeID{f.PlanningWeekID, f.RouteKey}]; n > 0 {
			out[f.ID] = n
		}
	}
	return out, nil
}

// DeleteBatch deletes the org's forecasts among ids in one transaction and
// cascades orphaned commitments per route. Any locked week fails the batch.
func (s *Service) DeleteBatch(ctx context.Context, actor tenancy.Actor, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var forecasts []domain.DemandForecast
	routes := make(map[cascade.RouteRef]struct{})
	var cascaded int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenancy.Scoped(tx, actor.OrgID).Where("id IN ?", ids).Find(&forecasts).Error; err != nil {
			return err
		}
		if len(forecasts) == 0 {
			return nil
		}
		checked := make(map[uuid.UUID]bool)
		found := make([]uuid.UUID, 0, len(forecasts))
		for _, f := range forecasts {
			if !checked[f.PlanningWeekID] {
				if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, f.PlanningWeekID); err != nil {
					return err
				}
				checked[f.PlanningWeekID] = true
			}
			found = append(found, f.ID)
			routes[cascade.RouteRef{OrgID: actor.OrgID, PlanningWeekID: f.PlanningWeekID, RouteKey: f.RouteKey}] = struct{}{}
		}
		if err := deleteForecasts(tx, actor.OrgID, found); err != nil {
			return err
		}
		for r := range routes {
			n, err := cascade.OrphanedCommitments(tx, r)
			if err != nil {
				return err
			}
			cascaded += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	weeks := make(map[uuid.UUID]struct{})
	for r := range routes {
		if _, ok := weeks[r.PlanningWeekID]; !ok {
			weeks[r.PlanningWeekID] = struct{}{}
			s.weekChanged(ctx, actor.OrgID, r.PlanningWeekID)
		}
	}
	if len(forecasts) > 0 {
		deleted := make([]uuid.UUID, len(forecasts))
		for i, f := range forecasts {
			deleted[i] = f.ID
		}
		s.record(ctx, actor, audit.ActionBulkDelete, "", map[string]interface{}{
			"ids": deleted, "cascadedCommitments": cascaded,
		})
	}
	return len(forecasts), nil
}
