package demand

import (
	"context"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/cascade"
	"loadplan-backend/internal/application/notifications"
	"loadplan-backend/internal/application/planningweeks"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/infrastructure/database"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeekWatcher is told after a committed write to a planning week.
type WeekWatcher interface {
	WeekChanged(ctx context.Context, orgID, weekID uuid.UUID)
}

// Service is the demand forecast store. Every mutation runs in one
// transaction that re-reads the planning week under a share lock.
type Service struct {
	DB       *gorm.DB
	Audit    audit.Recorder
	Notifier notifications.Notifier
	Watcher  WeekWatcher
}

// DeleteResult reports a forecast deletion and its cascade.
type DeleteResult struct {
	ID                  uuid.UUID    `json:"id"`
	RouteKey            routekey.Key `json:"routeKey"`
	CascadedCommitments int64        `json:"cascadedCommitments"`
}

func (s *Service) Create(ctx context.Context, actor tenancy.Actor, in CreateInput) (*ForecastView, error) {
	weekID, err := tenancy.ParseID(in.PlanningWeekID, "planningWeekId")
	if err != nil {
		return nil, err
	}
	clientID, err := tenancy.ParseID(in.ClientID, "clientId")
	if err != nil {
		return nil, err
	}
	pickupID, err := tenancy.ParseID(in.PickupCityID, "pickupCityId")
	if err != nil {
		return nil, err
	}
	dropoffID, err := tenancy.ParseID(in.DropoffCityID, "dropoffCityId")
	if err != nil {
		return nil, err
	}
	if pickupID == dropoffID {
		return nil, apperr.ValidationFields("Pickup and dropoff cities must differ", map[string]string{"dropoffCityId": "dropoffCityId must differ from pickupCityId"})
	}
	truckTypeIDs, err := truckTypeIDsOf(in)
	if err != nil {
		return nil, err
	}
	var categoryID *uuid.UUID
	if in.DemandCategoryID != nil && *in.DemandCategoryID != "" {
		id, err := tenancy.ParseID(*in.DemandCategoryID, "demandCategoryId")
		if err != nil {
			return nil, err
		}
		categoryID = &id
	}

	patch := in.Loads.Patch()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	periods := patch.Apply(domain.Periods{})
	forecast := &domain.DemandForecast{
		OrgID:            actor.OrgID,
		PlanningWeekID:   weekID,
		ClientID:         clientID,
		PickupCityID:     pickupID,
		DropoffCityID:    dropoffID,
		TruckTypeKey:     domain.TruckTypeSetKey(truckTypeIDs),
		DemandCategoryID: categoryID,
		PeriodQuantities: domain.QuantitiesFrom(periods),
		TotalQty:         periods.Total(),
		CreatedBy:        actor.UserRef(),
	}

	var clientName string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, weekID); err != nil {
			return err
		}
		pickup, err := activeCity(tx, actor.OrgID, pickupID, "Pickup city")
		if err != nil {
			return err
		}
		dropoff, err := activeCity(tx, actor.OrgID, dropoffID, "Dropoff city")
		if err != nil {
			return err
		}
		client, err := tenancy.Find[domain.Party](tx, actor.OrgID, clientID, "Client")
		if err != nil {
			return err
		}
		if client.PartyRole != domain.PartyCustomer || !client.IsActive {
			return apperr.NotFound("Client not found")
		}
		clientName = client.Name
		if err := requireTruckTypes(tx, actor.OrgID, truckTypeIDs); err != nil {
			return err
		}
		if categoryID != nil {
			if _, err := tenancy.Find[domain.DemandCategory](tx, actor.OrgID, *categoryID, "Demand category"); err != nil {
				return err
			}
		}

		key, err := routekey.Encode(pickup.Name, dropoff.Name)
		if err != nil {
			return err
		}
		forecast.RouteKey = key

		var existing int64
		if err := tenancy.Scoped(tx.Model(&domain.DemandForecast{}), actor.OrgID).
			Where("planning_week_id = ? AND client_id = ? AND pickup_city_id = ? AND dropoff_city_id = ? AND truck_type_key = ?",
				weekID, clientID, pickupID, dropoffID, forecast.TruckTypeKey).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errDuplicate()
		}
		// The unique index decides races the count above cannot see.
		if err := tx.Create(forecast).Error; err != nil {
			if database.IsDuplicateKeyErr(err) {
				return errDuplicate()
			}
			return err
		}
		links := make([]domain.DemandForecastTruckType, len(truckTypeIDs))
		for i, id := range truckTypeIDs {
			links[i] = domain.DemandForecastTruckType{ForecastID: forecast.ID, TruckTypeID: id, OrgID: actor.OrgID}
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, err
	}

	s.weekChanged(ctx, actor.OrgID, weekID)
	s.record(ctx, actor, audit.ActionCreate, forecast.ID.String(), map[string]interface{}{
		"routeKey": forecast.RouteKey, "clientId": clientID, "totalQty": forecast.TotalQty,
	})
	if s.Notifier != nil {
		s.Notifier.NotifySupplyPlannersOfDemand(ctx, notifications.DemandNotice{
			OrgID:      actor.OrgID,
			ForecastID: forecast.ID,
			ClientName: clientName,
			RouteKey:   forecast.RouteKey,
			ActorName:  actor.Name,
			TotalQty:   forecast.TotalQty,
		})
	}
	return s.Get(ctx, actor.OrgID, forecast.ID)
}

// Update overlays the provided quantities, recomputes the total and writes only
// the columns that changed.
func (s *Service) Update(ctx context.Context, actor tenancy.Actor, id uuid.UUID, in UpdateInput) (*ForecastView, error) {
	patch := in.Loads.Patch()
	if patch.Empty() {
		return nil, apperr.Validation("No quantity fields provided")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var weekID uuid.UUID
	var changed map[string]interface{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := tenancy.Load[domain.DemandForecast](tx, actor.OrgID, id, "Demand forecast")
		if err != nil {
			return err
		}
		weekID = f.PlanningWeekID
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, f.PlanningWeekID); err != nil {
			return err
		}
		merged := patch.Apply(f.Periods())
		changed = changedColumns(f.PeriodQuantities, domain.QuantitiesFrom(merged))
		if total := merged.Total(); total != f.TotalQty {
			changed["total_qty"] = total
		}
		if len(changed) == 0 {
			return nil
		}
		return tenancy.Scoped(tx.Model(&domain.DemandForecast{}), actor.OrgID).
			Where("id = ?", id).
			Updates(changed).Error
	})
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		s.weekChanged(ctx, actor.OrgID, weekID)
		s.record(ctx, actor, audit.ActionUpdate, id.String(), map[string]interface{}{"changed": changed})
	}
	return s.Get(ctx, actor.OrgID, id)
}

// Delete removes a forecast. If it was the last forecast on its route in the
// week, the route's supply commitments are deleted in the same transaction.
func (s *Service) Delete(ctx context.Context, actor tenancy.Actor, id uuid.UUID) (*DeleteResult, error) {
	var f *domain.DemandForecast
	var cascaded int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		f, err = tenancy.Load[domain.DemandForecast](tx, actor.OrgID, id, "Demand forecast")
		if err != nil {
			return err
		}
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, f.PlanningWeekID); err != nil {
			return err
		}
		if err := deleteForecasts(tx, actor.OrgID, []uuid.UUID{id}); err != nil {
			return err
		}
		cascaded, err = cascade.OrphanedCommitments(tx, cascade.RouteRef{
			OrgID: actor.OrgID, PlanningWeekID: f.PlanningWeekID, RouteKey: f.RouteKey,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.weekChanged(ctx, actor.OrgID, f.PlanningWeekID)
	s.record(ctx, actor, audit.ActionDelete, id.String(), map[string]interface{}{
		"routeKey": f.RouteKey, "cascadedCommitments": cascaded,
	})
	if cascaded > 0 {
		s.recordCascade(ctx, actor, f.PlanningWeekID, f.RouteKey, cascaded)
	}
	return &DeleteResult{ID: id, RouteKey: f.RouteKey, CascadedCommitments: cascaded}, nil
}

func deleteForecasts(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) error {
	if err := tenancy.Scoped(tx, orgID).Where("forecast_id IN ?", ids).Delete(&domain.DemandForecastTruckType{}).Error; err != nil {
		return err
	}
	return tenancy.Scoped(tx, orgID).Where("id IN ?", ids).Delete(&domain.DemandForecast{}).Error
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*ForecastView, error) {
	db := s.DB.WithContext(ctx)
	f, err := tenancy.Find[domain.DemandForecast](db, orgID, id, "Demand forecast")
	if err != nil {
		return nil, err
	}
	views, err := resolve(db, orgID, []domain.DemandForecast{*f})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of the org's forecasts, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f ListFilter, page, pageSize int) ([]ForecastView, int64, error) {
	db := s.DB.WithContext(ctx)
	q := tenancy.Scoped(db.Model(&domain.DemandForecast{}), orgID)
	if f.PlanningWeekID != nil {
		q = q.Where("planning_week_id = ?", *f.PlanningWeekID)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.RouteKey != nil {
		key, err := routekey.ParseField(*f.RouteKey, "routeKey")
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("route_key = ?", key)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.DemandForecast
	if err := q.Order("created_at DESC, id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	views, err := resolve(db, orgID, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func activeCity(tx *gorm.DB, orgID, id uuid.UUID, what string) (*domain.City, error) {
	c, err := tenancy.Find[domain.City](tx, orgID, id, what)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, apperr.NotFound(what + " not found")
	}
	return c, nil
}

func requireTruckTypes(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) error {
	var n int64
	if err := tenancy.Scoped(tx.Model(&domain.TruckType{}), orgID).
		Where("id IN ? AND is_active = ?", ids, true).
		Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return apperr.NotFound("Truck type not found")
	}
	return nil
}

func truckTypeIDsOf(in CreateInput) ([]uuid.UUID, error) {
	raw := append([]string{}, in.TruckTypeIDs...)
	if in.TruckTypeID != "" {
		raw = append(raw, in.TruckTypeID)
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := tenancy.ParseID(r, "truckTypeIds")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	ids = domain.UniqueTruckTypes(ids)
	if len(ids) == 0 {
		return nil, apperr.ValidationFields("At least one truck type is required", map[string]string{"truckTypeIds": "truckTypeIds must contain at least 1 item(s)"})
	}
	return ids, nil
}

func changedColumns(before, after domain.PeriodQuantities) map[string]interface{} {
	b, a := before.Columns(), after.Columns()
	out := make(map[string]interface{})
	for col, v := range a {
		if b[col] != v {
			out[col] = v
		}
	}
	return out
}

func errDuplicate() error {
	return apperr.Duplicate("A forecast for this client, route, truck types and week already exists")
}

func (s *Service) weekChanged(ctx context.Context, orgID, weekID uuid.UUID) {
	if s.Watcher != nil {
		s.Watcher.WeekChanged(ctx, orgID, weekID)
	}
}

func (s *Service) record(ctx context.Context, actor tenancy.Actor, action, entityID string, meta map[string]interface{}) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, audit.Entry{
		OrgID:      actor.OrgID,
		UserID:     actor.UserRef(),
		Action:     action,
		EntityType: audit.EntityDemandForecast,
		EntityID:   entityID,
		Metadata:   meta,
	})
}

func (s *Service) recordCascade(ctx context.Context, actor tenancy.Actor, weekID uuid.UUID, key routekey.Key, n int64) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, audit.Entry{
		OrgID:      actor.OrgID,
		UserID:     actor.UserRef(),
		Action:     audit.ActionCascadeDelete,
		EntityType: audit.EntitySupplyCommitment,
		EntityID:   string(key),
		Metadata:   map[string]interface{}{"planningWeekId": weekID, "routeKey": key, "deleted": n},
	})
}
