// Package testutil builds in-memory stores and seed data for package tests.
package testutil

import (
	"testing"
	"time"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// Tenant is a seeded org with one planning week and a small catalog.
type Tenant struct {
	Org       domain.Org
	User      domain.User
	Week      domain.PlanningWeek
	Riyadh    domain.City
	Jeddah    domain.City
	Dammam    domain.City
	Client    domain.Party
	Client2   domain.Party
	Supplier  domain.Party
	Supplier2 domain.Party
	Flatbed   domain.TruckType
	Reefer    domain.TruckType
	Category  domain.DemandCategory
}

// SeedTenant creates a weekly-cycle tenant named name with an unlocked week.
func SeedTenant(t *testing.T, db *gorm.DB, name string) *Tenant {
	t.Helper()
	org := domain.Org{OrgName: name, OrgCode: code(name), PlanningCycle: domain.CycleWeekly}
	require.NoError(t, db.Create(&org).Error)
	orgID := org.OrgID

	tn := &Tenant{Org: org}
	tn.User = domain.User{
		Fullname: name + " Planner", UserName: "planner", Email: uuid.NewString() + "@example.com",
		PasswordHash: "x", OrgID: &orgID, Role: "admin",
	}
	require.NoError(t, db.Create(&tn.User).Error)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tn.Week = domain.PlanningWeek{OrgID: orgID, WeekStart: start, WeekEnd: start.AddDate(0, 0, 6), WeekNumber: 10, Year: 2026}
	require.NoError(t, db.Create(&tn.Week).Error)

	tn.Riyadh = domain.City{OrgID: orgID, Name: "Riyadh", Code: "RUH", Region: "Central", IsActive: true}
	tn.Jeddah = domain.City{OrgID: orgID, Name: "Jeddah", Code: "JED", Region: "Western", IsActive: true}
	tn.Dammam = domain.City{OrgID: orgID, Name: "Dammam", Code: "DMM", Region: "Eastern", IsActive: true}
	for _, c := range []*domain.City{&tn.Riyadh, &tn.Jeddah, &tn.Dammam} {
		require.NoError(t, db.Create(c).Error)
	}

	tn.Client = domain.Party{OrgID: orgID, Name: "Almarai", PartyRole: domain.PartyCustomer, IsActive: true}
	tn.Client2 = domain.Party{OrgID: orgID, Name: "Sadafco", PartyRole: domain.PartyCustomer, IsActive: true}
	tn.Supplier = domain.Party{OrgID: orgID, Name: "Fast Carriers", PartyRole: domain.PartySupplier, IsActive: true}
	tn.Supplier2 = domain.Party{OrgID: orgID, Name: "Desert Haulage", PartyRole: domain.PartySupplier, IsActive: true}
	for _, p := range []*domain.Party{&tn.Client, &tn.Client2, &tn.Supplier, &tn.Supplier2} {
		require.NoError(t, db.Create(p).Error)
	}

	tn.Flatbed = domain.TruckType{OrgID: orgID, Name: "Flatbed", IsActive: true}
	tn.Reefer = domain.TruckType{OrgID: orgID, Name: "Reefer", IsActive: true}
	require.NoError(t, db.Create(&tn.Flatbed).Error)
	require.NoError(t, db.Create(&tn.Reefer).Error)

	tn.Category = domain.DemandCategory{OrgID: orgID, Name: "Contract", IsActive: true}
	require.NoError(t, db.Create(&tn.Category).Error)
	return tn
}

// LockWeek flips the seeded week to locked.
func (tn *Tenant) LockWeek(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Model(&domain.PlanningWeek{}).Where("id = ?", tn.Week.ID).Update("is_locked", true).Error)
	tn.Week.IsLocked = true
}

func code(name string) string {
	if len(name) > 6 {
		name = name[:6]
	}
	return name + "-" + uuid.NewString()[:3]
}
