package supply

import (
	"context"
	"strings"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/planningweeks"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Committed carries optional per-period committed quantities.
type Committed struct {
	Day1Committed  *int `json:"day1Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day2Committed  *int `json:"day2Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day3Committed  *int `json:"day3Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day4Committed  *int `json:"day4Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day5Committed  *int `json:"day5Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day6Committed  *int `json:"day6Committed" validate:"omitempty,gte=0,lte=1000000"`
	Day7Committed  *int `json:"day7Committed" validate:"omitempty,gte=0,lte=1000000"`
	Week1Committed *int `json:"week1Committed" validate:"omitempty,gte=0,lte=1000000"`
	Week2Committed *int `json:"week2Committed" validate:"omitempty,gte=0,lte=1000000"`
	Week3Committed *int `json:"week3Committed" validate:"omitempty,gte=0,lte=1000000"`
	Week4Committed *int `json:"week4Committed" validate:"omitempty,gte=0,lte=1000000"`
	Week5Committed *int `json:"week5Committed" validate:"omitempty,gte=0,lte=1000000"`
}

func (c Committed) Patch() domain.PeriodPatch {
	return domain.PeriodPatch{
		Days: [domain.DaysPerWeek]*int{c.Day1Committed, c.Day2Committed, c.Day3Committed, c.Day4Committed,
			c.Day5Committed, c.Day6Committed, c.Day7Committed},
		Weeks: [domain.WeeksPerPeriod]*int{c.Week1Committed, c.Week2Committed, c.Week3Committed, c.Week4Committed, c.Week5Committed},
	}
}

// CreateInput is the body of POST /supply. Commitments attach to a route key,
// not to forecasts or cities.
type CreateInput struct {
	PlanningWeekID string  `json:"planningWeekId" validate:"required,uuid"`
	SupplierID     string  `json:"supplierId" validate:"required,uuid"`
	RouteKey       string  `json:"routeKey" validate:"required,max=255"`
	Notes          *string `json:"notes" validate:"omitempty,max=500"`
	Committed
}

type UpdateInput struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
	Committed
}

type ListFilter struct {
	PlanningWeekID *uuid.UUID
	SupplierID     *uuid.UUID
	RouteKey       *string
}

type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CommitmentView is a commitment with its supplier resolved.
type CommitmentView struct {
	domain.SupplyCommitment
	Supplier *Ref `json:"supplier"`
}

// WeekWatcher is told after a committed write to a planning week.
type WeekWatcher interface {
	WeekChanged(ctx context.Context, orgID, weekID uuid.UUID)
}

// Service is the supply commitment store. Several commitments, from one or
// many suppliers, may serve the same route.
type Service struct {
	DB      *gorm.DB
	Audit   audit.Recorder
	Watcher WeekWatcher
}

func (s *Service) Create(ctx context.Context, actor tenancy.Actor, in CreateInput) (*CommitmentView, error) {
	weekID, err := tenancy.ParseID(in.PlanningWeekID, "planningWeekId")
	if err != nil {
		return nil, err
	}
	supplierID, err := tenancy.ParseID(in.SupplierID, "supplierId")
	if err != nil {
		return nil, err
	}
	key, err := routekey.ParseField(in.RouteKey, "routeKey")
	if err != nil {
		return nil, err
	}
	patch := in.Committed.Patch()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	periods := patch.Apply(domain.Periods{})
	c := &domain.SupplyCommitment{
		OrgID:            actor.OrgID,
		PlanningWeekID:   weekID,
		SupplierID:       supplierID,
		RouteKey:         key,
		PeriodQuantities: domain.QuantitiesFrom(periods),
		TotalCommitted:   periods.Total(),
		Notes:            trimmed(in.Notes),
		CreatedBy:        actor.UserRef(),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, weekID); err != nil {
			return err
		}
		supplier, err := tenancy.Find[domain.Party](tx, actor.OrgID, supplierID, "Supplier")
		if err != nil {
			return err
		}
		if supplier.PartyRole != domain.PartySupplier || !supplier.IsActive {
			return apperr.NotFound("Supplier not found")
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	s.weekChanged(ctx, actor.OrgID, weekID)
	s.record(ctx, actor, audit.ActionCreate, c.ID, map[string]interface{}{
		"routeKey": key, "supplierId": supplierID, "totalCommitted": c.TotalCommitted,
	})
	return s.Get(ctx, actor.OrgID, c.ID)
}

// Update overlays provided quantities and notes; only changed columns are written.
func (s *Service) Update(ctx context.Context, actor tenancy.Actor, id uuid.UUID, in UpdateInput) (*CommitmentView, error) {
	patch := in.Committed.Patch()
	if patch.Empty() && in.Notes == nil {
		return nil, apperr.Validation("No update fields provided")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var weekID uuid.UUID
	var changed map[string]interface{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := tenancy.Load[domain.SupplyCommitment](tx, actor.OrgID, id, "Supply commitment")
		if err != nil {
			return err
		}
		weekID = c.PlanningWeekID
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, c.PlanningWeekID); err != nil {
			return err
		}
		merged := patch.Apply(c.Periods())
		changed = make(map[string]interface{})
		before, after := c.Columns(), domain.QuantitiesFrom(merged).Columns()
		for col, v := range after {
			if before[col] != v {
				changed[col] = v
			}
		}
		if total := merged.Total(); total != c.TotalCommitted {
			changed["total_committed"] = total
		}
		if in.Notes != nil {
			notes := trimmed(in.Notes)
			if !sameNotes(c.Notes, notes) {
				changed["notes"] = notes
			}
		}
		if len(changed) == 0 {
			return nil
		}
		return tenancy.Scoped(tx.Model(&domain.SupplyCommitment{}), actor.OrgID).Where("id = ?", id).Updates(changed).Error
	})
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		s.weekChanged(ctx, actor.OrgID, weekID)
		s.record(ctx, actor, audit.ActionUpdate, id, map[string]interface{}{"changed": changed})
	}
	return s.Get(ctx, actor.OrgID, id)
}

func (s *Service) Delete(ctx context.Context, actor tenancy.Actor, id uuid.UUID) error {
	var c *domain.SupplyCommitment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = tenancy.Load[domain.SupplyCommitment](tx, actor.OrgID, id, "Supply commitment")
		if err != nil {
			return err
		}
		if _, err := planningweeks.RequireUnlocked(tx, actor.OrgID, c.PlanningWeekID); err != nil {
			return err
		}
		return tenancy.Scoped(tx, actor.OrgID).Where("id = ?", id).Delete(&domain.SupplyCommitment{}).Error
	})
	if err != nil {
		return err
	}
	s.weekChanged(ctx, actor.OrgID, c.PlanningWeekID)
	s.record(ctx, actor, audit.ActionDelete, id, map[string]interface{}{"routeKey": c.RouteKey})
	return nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*CommitmentView, error) {
	db := s.DB.WithContext(ctx)
	c, err := tenancy.Find[domain.SupplyCommitment](db, orgID, id, "Supply commitment")
	if err != nil {
		return nil, err
	}
	views, err := resolve(db, orgID, []domain.SupplyCommitment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, f ListFilter, page, pageSize int) ([]CommitmentView, int64, error) {
	db := s.DB.WithContext(ctx)
	q := tenancy.Scoped(db.Model(&domain.SupplyCommitment{}), orgID)
	if f.PlanningWeekID != nil {
		q = q.Where("planning_week_id = ?", *f.PlanningWeekID)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
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
	var rows []domain.SupplyCommitment
	if err := q.Order("created_at DESC, id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	views, err := resolve(db, orgID, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func resolve(db *gorm.DB, orgID uuid.UUID, rows []domain.SupplyCommitment) ([]CommitmentView, error) {
	out := make([]CommitmentView, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SupplierID)
	}
	byID := make(map[uuid.UUID]*Ref)
	if len(ids) > 0 {
		var parties []domain.Party
		if err := tenancy.Scoped(db, orgID).Where("id IN ?", ids).Find(&parties).Error; err != nil {
			return nil, err
		}
		for _, p := range parties {
			byID[p.ID] = &Ref{ID: p.ID, Name: p.Name}
		}
	}
	for i, r := range rows {
		out[i] = CommitmentView{SupplyCommitment: r, Supplier: byID[r.SupplierID]}
	}
	return out, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func sameNotes(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) weekChanged(ctx context.Context, orgID, weekID uuid.UUID) {
	if s.Watcher != nil {
		s.Watcher.WeekChanged(ctx, orgID, weekID)
	}
}

func (s *Service) record(ctx context.Context, actor tenancy.Actor, action string, id uuid.UUID, meta map[string]interface{}) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, audit.Entry{
		OrgID:      actor.OrgID,
		UserID:     actor.UserRef(),
		Action:     action,
		EntityType: audit.EntitySupplyCommitment,
		EntityID:   id.String(),
		Metadata:   meta,
	})
}
