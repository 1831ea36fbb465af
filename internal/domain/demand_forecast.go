package domain

import (
	"sort"
	"strings"
	"time"

	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DemandForecast is one client's forecasted loads on a route for a planning period.
// The unique index is the storage-level guard against duplicate forecasts.
type DemandForecast struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID            uuid.UUID    `gorm:"column:org_id;type:uuid;not null;uniqueIndex:idx_demand_forecast_unique,priority:1;index:idx_demand_forecast_route,priority:1" json:"org_id"`
	PlanningWeekID   uuid.UUID    `gorm:"column:planning_week_id;type:uuid;not null;uniqueIndex:idx_demand_forecast_unique,priority:2;index:idx_demand_forecast_route,priority:2" json:"planningWeekId"`
	ClientID         uuid.UUID    `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_demand_forecast_unique,priority:3" json:"clientId"`
	PickupCityID     uuid.UUID    `gorm:"column:pickup_city_id;type:uuid;not null;uniqueIndex:idx_demand_forecast_unique,priority:4" json:"pickupCityId"`
	DropoffCityID    uuid.UUID    `gorm:"column:dropoff_city_id;type:uuid;not null;uniqueIndex:idx_demand_forecast_unique,priority:5" json:"dropoffCityId"`
	TruckTypeKey     string       `gorm:"column:truck_type_key;type:varchar(512);not null;uniqueIndex:idx_demand_forecast_unique,priority:6" json:"-"`
	DemandCategoryID *uuid.UUID   `gorm:"column:demand_category_id;type:uuid" json:"demandCategoryId"`
	RouteKey         routekey.Key `gorm:"column:route_key;type:varchar(255);not null;index:idx_demand_forecast_route,priority:3" json:"routeKey"`
	PeriodQuantities `gorm:"embedded"`
	TotalQty         int        `gorm:"column:total_qty;not null;default:0" json:"totalQty"`
	CreatedBy        *uuid.UUID `gorm:"column:created_by;type:uuid" json:"createdBy"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (DemandForecast) TableName() string {
	return "DemandForecasts"
}

func (f *DemandForecast) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// DemandForecastTruckType links a forecast to each truck type it requests.
type DemandForecastTruckType struct {
	ForecastID  uuid.UUID `gorm:"column:forecast_id;type:uuid;primaryKey" json:"forecastId"`
	TruckTypeID uuid.UUID `gorm:"column:truck_type_id;type:uuid;primaryKey;index" json:"truckTypeId"`
	OrgID       uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
}

func (DemandForecastTruckType) TableName() string {
	return "DemandForecastTruckTypes"
}

// TruckTypeSetKey canonicalizes a truck-type id set: deduplicated, sorted, comma-joined.
func TruckTypeSetKey(ids []uuid.UUID) string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// UniqueTruckTypes returns ids with duplicates removed, order preserved.
func UniqueTruckTypes(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
