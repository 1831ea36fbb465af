package demand

import (
	"context"
	"errors"
	"sync"
	"testing"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/notifications"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/routekey"
	"loadplan-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type spies struct {
	mu      sync.Mutex
	weeks   []uuid.UUID
	entries []audit.Entry
	notices []notifications.DemandNotice
}

func (s *spies) WeekChanged(_ context.Context, _, weekID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks = append(s.weeks, weekID)
}

func (s *spies) Record(_ context.Context, e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *spies) NotifySupplyPlannersOfDemand(_ context.Context, n notifications.DemandNotice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func setup(t *testing.T) (*Service, *gorm.DB, *testutil.Tenant, *spies) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	sp := &spies{}
	return &Service{DB: db, Audit: sp, Notifier: sp, Watcher: sp}, db, tn, sp
}

func actorOf(tn *testutil.Tenant) tenancy.Actor {
	return tenancy.Actor{OrgID: tn.Org.OrgID, UserID: tn.User.UserID, Name: tn.User.Fullname, Role: tn.User.Role}
}

func intp(v int) *int { return &v }

func baseInput(tn *testutil.Tenant) CreateInput {
	return CreateInput{
		PlanningWeekID: tn.Week.ID.String(),
		ClientID:       tn.Client.ID.String(),
		PickupCityID:   tn.Riyadh.ID.String(),
		DropoffCityID:  tn.Jeddah.ID.String(),
		TruckTypeIDs:   []string{tn.Flatbed.ID.String()},
		Loads:          Loads{Day1Loads: intp(10)},
	}
}

func addCommitment(t *testing.T, db *gorm.DB, tn *testutil.Tenant, supplier domain.Party, key routekey.Key, day1 int) domain.SupplyCommitment {
	c := domain.SupplyCommitment{OrgID: tn.Org.OrgID, PlanningWeekID: tn.Week.ID, SupplierID: supplier.ID, RouteKey: key,
		PeriodQuantities: domain.PeriodQuantities{Day1Qty: day1}, TotalCommitted: day1}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func TestCreate_DerivesTotalAndRouteKey(t *testing.T) {
	svc, _, tn, sp := setup(t)
	in := baseInput(tn)
	in.DemandCategoryID = func() *string { s := tn.Category.ID.String(); return &s }()
	in.Day3Loads = intp(5)
	in.Week1Loads = intp(99)

	v, err := svc.Create(context.Background(), actorOf(tn), in)
	require.NoError(t, err)

	assert.Equal(t, routekey.Key("Riyadh⇒Jeddah"), v.RouteKey)
	assert.Equal(t, 15, v.TotalQty, "day sum wins over week sum")
	assert.Equal(t, 99, v.Week1Qty)
	require.NotNil(t, v.Client)
	assert.Equal(t, "Almarai", v.Client.Name)
	assert.Equal(t, "Riyadh", v.PickupCity.Name)
	assert.Equal(t, "Jeddah", v.DropoffCity.Name)
	require.Len(t, v.TruckTypes, 1)
	assert.Equal(t, "Flatbed", v.TruckTypes[0].Name)
	require.NotNil(t, v.DemandCategory)
	assert.Equal(t, "Contract", v.DemandCategory.Name)
	require.NotNil(t, v.PlanningWeek)
	assert.Equal(t, tn.Week.ID, v.PlanningWeek.ID)
	require.NotNil(t, v.Creator)
	assert.Equal(t, tn.User.Fullname, v.Creator.Name)

	assert.Equal(t, []uuid.UUID{tn.Week.ID}, sp.weeks)
	require.Len(t, sp.entries, 1)
	assert.Equal(t, audit.ActionCreate, sp.entries[0].Action)
	require.Len(t, sp.notices, 1)
	assert.Equal(t, "Almarai", sp.notices[0].ClientName)
	assert.Equal(t, v.ID, sp.notices[0].ForecastID)
}

func TestCreate_WeekSumWhenNoDays(t *testing.T) {
	svc, _, tn, _ := setup(t)
	in := baseInput(tn)
	in.Loads = Loads{Week1Loads: intp(4), Week5Loads: intp(3)}

	v, err := svc.Create(context.Background(), actorOf(tn), in)
	require.NoError(t, err)
	assert.Equal(t, 7, v.TotalQty)
}

func TestCreate_DuplicateRejected(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	in := baseInput(tn)
	in.TruckTypeIDs = []string{tn.Flatbed.ID.String(), tn.Reefer.ID.String()}

	_, err := svc.Create(ctx, actorOf(tn), in)
	require.NoError(t, err)

	again := baseInput(tn)
	again.TruckTypeIDs = []string{tn.Reefer.ID.String()}
	again.TruckTypeID = tn.Flatbed.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), again)
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))

	// A different truck-type set is a different forecast.
	other := baseInput(tn)
	other.TruckTypeIDs = []string{tn.Reefer.ID.String()}
	_, err = svc.Create(ctx, actorOf(tn), other)
	require.NoError(t, err)

	var n int64
	db.Model(&domain.DemandForecast{}).Count(&n)
	assert.EqualValues(t, 2, n)
}

func TestCreate_DuplicateBackedByUniqueIndex(t *testing.T) {
	_, db, tn, _ := setup(t)
	f := domain.DemandForecast{OrgID: tn.Org.OrgID, PlanningWeekID: tn.Week.ID, ClientID: tn.Client.ID,
		PickupCityID: tn.Riyadh.ID, DropoffCityID: tn.Jeddah.ID, TruckTypeKey: tn.Flatbed.ID.String(), RouteKey: "Riyadh⇒Jeddah"}
	require.NoError(t, db.Create(&f).Error)
	dup := f
	dup.ID = uuid.Nil
	assert.Error(t, db.Create(&dup).Error)
}

func TestCreate_Validation(t *testing.T) {
	svc, db, tn, _ := setup(t)
	other := testutil.SeedTenant(t, db, "Other")
	ctx := context.Background()

	same := baseInput(tn)
	same.DropoffCityID = same.PickupCityID
	_, err := svc.Create(ctx, actorOf(tn), same)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	noTrucks := baseInput(tn)
	noTrucks.TruckTypeIDs = nil
	_, err = svc.Create(ctx, actorOf(tn), noTrucks)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	foreignCity := baseInput(tn)
	foreignCity.DropoffCityID = other.Jeddah.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), foreignCity)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	supplierAsClient := baseInput(tn)
	supplierAsClient.ClientID = tn.Supplier.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), supplierAsClient)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	foreignWeek := baseInput(tn)
	foreignWeek.PlanningWeekID = other.Week.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), foreignWeek)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	foreignTruck := baseInput(tn)
	foreignTruck.TruckTypeIDs = []string{other.Flatbed.ID.String()}
	_, err = svc.Create(ctx, actorOf(tn), foreignTruck)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestLockedWeek_RejectsAllWrites(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	v, err := svc.Create(ctx, actorOf(tn), baseInput(tn))
	require.NoError(t, err)
	tn.LockWeek(t, db)

	in := baseInput(tn)
	in.ClientID = tn.Client2.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), in)
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))

	_, err = svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Loads{Day1Loads: intp(1)}})
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))

	_, err = svc.Delete(ctx, actorOf(tn), v.ID)
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))

	var rows []domain.DemandForecast
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Day1Qty)
	assert.Equal(t, 10, rows[0].TotalQty)
}

func TestUpdate_MergesAndRecomputesTotal(t *testing.T) {
	svc, _, tn, sp := setup(t)
	ctx := context.Background()
	in := baseInput(tn)
	in.Day2Loads = intp(5)
	v, err := svc.Create(ctx, actorOf(tn), in)
	require.NoError(t, err)
	require.Equal(t, 15, v.TotalQty)

	u, err := svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Loads{Day2Loads: intp(0), Day7Loads: intp(3)}})
	require.NoError(t, err)
	assert.Equal(t, 10, u.Day1Qty)
	assert.Equal(t, 0, u.Day2Qty)
	assert.Equal(t, 3, u.Day7Qty)
	assert.Equal(t, 13, u.TotalQty)
	assert.Equal(t, v.RouteKey, u.RouteKey)

	// Clearing every day falls back to the week sum.
	u, err = svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Loads{Day1Loads: intp(0), Day7Loads: intp(0), Week2Loads: intp(8)}})
	require.NoError(t, err)
	assert.Equal(t, 8, u.TotalQty)

	last := sp.entries[len(sp.entries)-1]
	assert.Equal(t, audit.ActionUpdate, last.Action)
	changed := last.Metadata["changed"].(map[string]interface{})
	assert.Equal(t, 8, changed["week2_qty"])
	assert.Equal(t, 8, changed["total_qty"])
	_, touched := changed["day3_qty"]
	assert.False(t, touched)
}

func TestUpdate_RequiresQuantities(t *testing.T) {
	svc, _, tn, _ := setup(t)
	_, err := svc.Update(context.Background(), actorOf(tn), uuid.New(), UpdateInput{})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestDelete_CascadesOnlyForLastForecastOnRoute(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, actorOf(tn), baseInput(tn))
	require.NoError(t, err)
	in := baseInput(tn)
	in.ClientID = tn.Client2.ID.String()
	second, err := svc.Create(ctx, actorOf(tn), in)
	require.NoError(t, err)
	addCommitment(t, db, tn, tn.Supplier, first.RouteKey, 4)
	addCommitment(t, db, tn, tn.Supplier2, first.RouteKey, 6)

	res, err := svc.Delete(ctx, actorOf(tn), first.ID)
	require.NoError(t, err)
	assert.Zero(t, res.CascadedCommitments)
	var n int64
	db.Model(&domain.SupplyCommitment{}).Count(&n)
	assert.EqualValues(t, 2, n)

	res, err = svc.Delete(ctx, actorOf(tn), second.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.CascadedCommitments)
	db.Model(&domain.SupplyCommitment{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.DemandForecastTruckType{}).Count(&n)
	assert.Zero(t, n)
}

func TestTenantIsolation(t *testing.T) {
	svc, db, tn, _ := setup(t)
	other := testutil.SeedTenant(t, db, "Other")
	ctx := context.Background()
	v, err := svc.Create(ctx, actorOf(tn), baseInput(tn))
	require.NoError(t, err)

	_, err = svc.Update(ctx, actorOf(other), v.ID, UpdateInput{Loads{Day1Loads: intp(1)}})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.Delete(ctx, actorOf(other), v.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.Get(ctx, other.Org.OrgID, v.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	rows, total, err := svc.List(ctx, other.Org.OrgID, ListFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)

	got, err := svc.Get(ctx, tn.Org.OrgID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day1Qty)
}

func TestList_FiltersAndPages(t *testing.T) {
	svc, _, tn, _ := setup(t)
	ctx := context.Background()
	for _, in := range []CreateInput{
		baseInput(tn),
		func() CreateInput { in := baseInput(tn); in.ClientID = tn.Client2.ID.String(); return in }(),
		func() CreateInput { in := baseInput(tn); in.DropoffCityID = tn.Dammam.ID.String(); return in }(),
	} {
		_, err := svc.Create(ctx, actorOf(tn), in)
		require.NoError(t, err)
	}

	rows, total, err := svc.List(ctx, tn.Org.OrgID, ListFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 2)

	key := "riyadh ⇒ jeddah"
	rows, total, err = svc.List(ctx, tn.Org.OrgID, ListFilter{RouteKey: &key}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range rows {
		assert.Equal(t, routekey.Key("Riyadh⇒Jeddah"), r.RouteKey)
		assert.NotNil(t, r.Client)
	}

	client := tn.Client2.ID
	week := tn.Week.ID
	rows, total, err = svc.List(ctx, tn.Org.OrgID, ListFilter{ClientID: &client, PlanningWeekID: &week}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Sadafco", rows[0].Client.Name)
}

func TestBulk_CheckDependenciesAndDeleteBatch(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, actorOf(tn), baseInput(tn))
	require.NoError(t, err)
	in := baseInput(tn)
	in.DropoffCityID = tn.Dammam.ID.String()
	b, err := svc.Create(ctx, actorOf(tn), in)
	require.NoError(t, err)
	addCommitment(t, db, tn, tn.Supplier, a.RouteKey, 3)

	deps, err := svc.CheckDependencies(ctx, tn.Org.OrgID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deps[a.ID])
	_, ok := deps[b.ID]
	assert.False(t, ok)

	n, err := svc.DeleteBatch(ctx, actorOf(tn), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	var left int64
	db.Model(&domain.SupplyCommitment{}).Count(&left)
	assert.Zero(t, left)
}

func TestBulk_DeleteBatchFailsOnLockedWeek(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, actorOf(tn), baseInput(tn))
	require.NoError(t, err)
	tn.LockWeek(t, db)

	_, err = svc.DeleteBatch(ctx, actorOf(tn), []uuid.UUID{a.ID})
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))

	deps, err := svc.CheckDependencies(ctx, tn.Org.OrgID, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Empty(t, deps)
}
