package planningweeks

import (
	"context"
	"errors"
	"time"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/infrastructure/database"
	"loadplan-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockListener is told when a week's lock state changes (gap cache invalidation).
type LockListener interface {
	WeekChanged(ctx context.Context, orgID, weekID uuid.UUID)
}

// Service manages planning periods.
type Service struct {
	DB       *gorm.DB
	Audit    audit.Recorder
	Listener LockListener
}

// Period is the date range a planning week covers.
type Period struct {
	Start      time.Time
	End        time.Time
	WeekNumber int
	Year       int
}

// PeriodFor returns the planning period containing date for org's cycle.
// Weekly periods start on org.WeekStartDay and are numbered by the ISO week of
// their midpoint. Monthly periods are calendar months numbered by month.
func PeriodFor(org *domain.Org, date time.Time) Period {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if org.IsMonthly() {
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Start:      start,
			End:        start.AddDate(0, 1, -1),
			WeekNumber: int(d.Month()),
			Year:       d.Year(),
		}
	}
	offset := (int(d.Weekday()) - org.WeekStartDay%7 + 7) % 7
	start := d.AddDate(0, 0, -offset)
	year, week := start.AddDate(0, 0, 3).ISOWeek()
	return Period{Start: start, End: start.AddDate(0, 0, 6), WeekNumber: week, Year: year}
}

// WeekOfMonth maps a day of month to its week1..week5 slot (1-based).
func WeekOfMonth(day int) int {
	w := (day-1)/7 + 1
	if w > domain.WeeksPerPeriod {
		return domain.WeeksPerPeriod
	}
	return w
}

// GetOrCreate returns the org's planning week containing date, creating it on first use.
func (s *Service) GetOrCreate(ctx context.Context, orgID uuid.UUID, date time.Time) (*domain.PlanningWeek, error) {
	var org domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Org not found")
		}
		return nil, err
	}
	p := PeriodFor(&org, date)

	week, err := s.findByStart(ctx, orgID, p.Start)
	if err == nil {
		return week, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	week = &domain.PlanningWeek{
		OrgID:      orgID,
		WeekStart:  p.Start,
		WeekEnd:    p.End,
		WeekNumber: p.WeekNumber,
		Year:       p.Year,
	}
	if err := s.DB.WithContext(ctx).Create(week).Error; err != nil {
		if database.IsDuplicateKeyErr(err) {
			// A concurrent request created it first.
			return s.findByStart(ctx, orgID, p.Start)
		}
		return nil, err
	}
	return week, nil
}

func (s *Service) findByStart(ctx context.Context, orgID uuid.UUID, start time.Time) (*domain.PlanningWeek, error) {
	var w domain.PlanningWeek
	err := tenancy.Scoped(s.DB.WithContext(ctx), orgID).Where("week_start = ?", start).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// List returns the org's planning weeks, newest first. year 0 lists all years.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, year int) ([]domain.PlanningWeek, error) {
	q := tenancy.Scoped(s.DB.WithContext(ctx), orgID)
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	var weeks []domain.PlanningWeek
	if err := q.Order("week_start DESC").Find(&weeks).Error; err != nil {
		return nil, err
	}
	return weeks, nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*domain.PlanningWeek, error) {
	return tenancy.Find[domain.PlanningWeek](s.DB.WithContext(ctx), orgID, id, "Planning week")
}

// SetLocked locks or unlocks a week. The UPDATE waits for writers holding a
// share lock on the row (see RequireUnlocked).
func (s *Service) SetLocked(ctx context.Context, orgID, id uuid.UUID, locked bool, actor *uuid.UUID) (*domain.PlanningWeek, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := tenancy.Load[domain.PlanningWeek](tx.Clauses(clause.Locking{Strength: "UPDATE"}), orgID, id, "Planning week")
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"is_locked": locked, "locked_at": nil, "locked_by": nil}
		if locked {
			now := time.Now().UTC()
			updates["locked_at"] = now
			updates["locked_by"] = actor
		}
		return tx.Model(w).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	if s.Listener != nil {
		s.Listener.WeekChanged(ctx, orgID, id)
	}
	if s.Audit != nil {
		action := audit.ActionUnlock
		if locked {
			action = audit.ActionLock
		}
		s.Audit.Record(ctx, audit.Entry{OrgID: orgID, UserID: actor, Action: action, EntityType: audit.EntityPlanningWeek, EntityID: id.String()})
	}
	return s.Get(ctx, orgID, id)
}

// RequireUnlocked reads the week inside tx under a share lock and fails with
// LOCKED when it is locked. Weeks of other tenants are NOT_FOUND.
func RequireUnlocked(tx *gorm.DB, orgID, weekID uuid.UUID) (*domain.PlanningWeek, error) {
	var w domain.PlanningWeek
	err := tenancy.Scoped(tx, orgID).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", weekID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Planning week not found")
		}
		return nil, err
	}
	if w.IsLocked {
		return nil, apperr.WeekLocked()
	}
	return &w, nil
}
