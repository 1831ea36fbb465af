package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Planning cycles an org can run on.
const (
	CycleWeekly  = "weekly"
	CycleMonthly = "monthly"
)

// Org is the tenant boundary. Every planning row carries its org_id.
type Org struct {
	OrgID         uuid.UUID      `gorm:"column:org_id;type:uuid;primaryKey" json:"org_id"`
	OrgName       string         `gorm:"column:org_name;not null;uniqueIndex" json:"org_name"`
	OrgCode       string         `gorm:"column:org_code;type:varchar(10);not null;uniqueIndex" json:"org_code"`
	PlanningCycle string         `gorm:"column:planning_cycle;type:varchar(10);not null;default:'weekly'" json:"planning_cycle"`
	WeekStartDay  int            `gorm:"column:week_start_day;not null;default:0" json:"week_start_day"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Org) TableName() string {
	return "Orgs"
}

// BeforeCreate ensures org_id is set for DBs without default uuid.
func (o *Org) BeforeCreate(tx *gorm.DB) error {
	if o.OrgID == uuid.Nil {
		o.OrgID = uuid.New()
	}
	if o.PlanningCycle == "" {
		o.PlanningCycle = CycleWeekly
	}
	return nil
}

func (o *Org) IsMonthly() bool {
	return o.PlanningCycle == CycleMonthly
}

func IsValidCycle(c string) bool {
	return c == CycleWeekly || c == CycleMonthly
}
