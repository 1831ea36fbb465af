package catalog

import (
	"context"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type countRow struct {
	ID uuid.UUID
	N  int64
}

// Dependencies counts forecasts and commitments in unlocked planning weeks that
// reference each id. Ids without references are absent from the map.
func (s *Service) Dependencies(ctx context.Context, orgID uuid.UUID, kind Kind, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db := s.DB.WithContext(ctx)
	var queries []*gorm.DB
	switch kind {
	case KindCities:
		queries = append(queries,
			forecastCounts(db, orgID, "f.pickup_city_id", ids),
			forecastCounts(db, orgID, "f.dropoff_city_id", ids))
	case KindClients:
		queries = append(queries, forecastCounts(db, orgID, "f.client_id", ids))
	case KindDemandCategories:
		queries = append(queries, forecastCounts(db, orgID, "f.demand_category_id", ids))
	case KindSuppliers:
		queries = append(queries, db.Table(`"SupplyCommitments" AS c`).
			Select("c.supplier_id AS id, COUNT(*) AS n").
			Joins(`JOIN "PlanningWeeks" AS w ON w.id = c.planning_week_id`).
			Where("c.org_id = ? AND w.is_locked = ? AND c.supplier_id IN ?", orgID, false, ids).
			Group("c.supplier_id"))
	case KindTruckTypes:
		queries = append(queries, db.Table(`"DemandForecastTruckTypes" AS t`).
			Select("t.truck_type_id AS id, COUNT(*) AS n").
			Joins(`JOIN "DemandForecasts" AS f ON f.id = t.forecast_id`).
			Joins(`JOIN "PlanningWeeks" AS w ON w.id = f.planning_week_id`).
			Where("t.org_id = ? AND w.is_locked = ? AND t.truck_type_id IN ?", orgID, false, ids).
			Group("t.truck_type_id"))
	default:
		return nil, apperr.Validation("unknown collection " + string(kind))
	}

	for _, q := range queries {
		var rows []countRow
		if err := q.Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.ID] += r.N
		}
	}
	return out, nil
}

func forecastCounts(db *gorm.DB, orgID uuid.UUID, column string, ids []uuid.UUID) *gorm.DB {
	return db.Table(`"DemandForecasts" AS f`).
		Select(column+" AS id, COUNT(*) AS n").
		Joins(`JOIN "PlanningWeeks" AS w ON w.id = f.planning_week_id`).
		Where("f.org_id = ? AND w.is_locked = ? AND "+column+" IN ?", orgID, false, ids).
		Group(column)
}

// Target adapts one master-data collection to the bulk orchestrator.
type Target struct {
	Service *Service
	Kind    Kind
}

func (t Target) CheckDependencies(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return t.Service.Dependencies(ctx, orgID, t.Kind, ids)
}

func (t Target) DeleteBatch(ctx context.Context, actor tenancy.Actor, ids []uuid.UUID) (int, error) {
	return t.Service.DeactivateBatch(ctx, actor, t.Kind, ids)
}
