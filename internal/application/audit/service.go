package audit

import (
	"context"
	"encoding/json"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded in the audit trail.
const (
	ActionCreate        = "CREATE"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionCascadeDelete = "CASCADE_DELETE"
	ActionBulkDelete    = "BULK_DELETE"
	ActionDeactivate    = "DEACTIVATE"
	ActionLock          = "LOCK"
	ActionUnlock        = "UNLOCK"
)

// Entity types recorded in the audit trail.
const (
	EntityDemandForecast   = "DemandForecast"
	EntitySupplyCommitment = "SupplyCommitment"
	EntityPlanningWeek     = "PlanningWeek"
	EntityCity             = "City"
	EntityParty            = "Party"
	EntityTruckType        = "TruckType"
	EntityDemandCategory   = "DemandCategory"
)

// Entry is one audit record.
type Entry struct {
	OrgID      uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
}

// Recorder appends audit entries without blocking the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Service struct {
	DB *gorm.DB
}

// Record writes e in the background. The write outlives request cancellation
// and failures are only logged.
func (s *Service) Record(ctx context.Context, e Entry) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.Write(bg, e); err != nil {
			log.Warn().Err(err).
				Str("org_id", e.OrgID.String()).
				Str("entity_type", e.EntityType).
				Str("entity_id", e.EntityID).
				Str("action", e.Action).
				Msg("audit log write failed")
		}
	}()
}

// Write persists e synchronously.
func (s *Service) Write(ctx context.Context, e Entry) error {
	row := domain.AuditLog{
		OrgID:      e.OrgID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
	}
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		row.Metadata = datatypes.JSON(b)
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

type Filter struct {
	EntityType string
	EntityID   string
}

// List returns a page of the org's audit trail, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f Filter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	q := tenancy.Scoped(s.DB.WithContext(ctx).Model(&domain.AuditLog{}), orgID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []domain.AuditLog
	if err := q.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
