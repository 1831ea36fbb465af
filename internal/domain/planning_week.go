package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanningWeek is one planning period: a week for weekly orgs, a calendar month
// for monthly orgs. No forecast or commitment may change while IsLocked is set.
type PlanningWeek struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID      uuid.UUID  `gorm:"column:org_id;type:uuid;not null;uniqueIndex:idx_planning_week_start,priority:1" json:"org_id"`
	WeekStart  time.Time  `gorm:"column:week_start;not null;uniqueIndex:idx_planning_week_start,priority:2" json:"weekStart"`
	WeekEnd    time.Time  `gorm:"column:week_end;not null" json:"weekEnd"`
	WeekNumber int        `gorm:"column:week_number;not null" json:"weekNumber"`
	Year       int        `gorm:"column:year;not null;index" json:"year"`
	IsLocked   bool       `gorm:"column:is_locked;not null;default:false" json:"isLocked"`
	LockedAt   *time.Time `gorm:"column:locked_at" json:"lockedAt"`
	LockedBy   *uuid.UUID `gorm:"column:locked_by;type:uuid" json:"lockedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (PlanningWeek) TableName() string {
	return "PlanningWeeks"
}

func (w *PlanningWeek) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
