package supply

import (
	"context"
	"errors"
	"testing"

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

type watcher struct{ weeks []uuid.UUID }

func (w *watcher) WeekChanged(_ context.Context, _, weekID uuid.UUID) { w.weeks = append(w.weeks, weekID) }

func setup(t *testing.T) (*Service, *gorm.DB, *testutil.Tenant, *watcher) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	w := &watcher{}
	return &Service{DB: db, Watcher: w}, db, tn, w
}

func actorOf(tn *testutil.Tenant) tenancy.Actor {
	return tenancy.Actor{OrgID: tn.Org.OrgID, UserID: tn.User.UserID, Name: tn.User.Fullname}
}

func intp(v int) *int { return &v }

func input(tn *testutil.Tenant) CreateInput {
	return CreateInput{
		PlanningWeekID: tn.Week.ID.String(),
		SupplierID:     tn.Supplier.ID.String(),
		RouteKey:       "riyadh⇒jeddah",
		Committed:      Committed{Day1Committed: intp(4), Day2Committed: intp(2)},
	}
}

func TestCreate_CanonicalKeyAndTotal(t *testing.T) {
	svc, _, tn, w := setup(t)
	v, err := svc.Create(context.Background(), actorOf(tn), input(tn))
	require.NoError(t, err)
	assert.Equal(t, routekey.Key("Riyadh⇒Jeddah"), v.RouteKey)
	assert.Equal(t, 6, v.TotalCommitted)
	require.NotNil(t, v.Supplier)
	assert.Equal(t, "Fast Carriers", v.Supplier.Name)
	assert.Equal(t, []uuid.UUID{tn.Week.ID}, w.weeks)
}

func TestCreate_AllowsSeveralCommitmentsPerRoute(t *testing.T) {
	svc, _, tn, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)
	_, err = svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)
	in := input(tn)
	in.SupplierID = tn.Supplier2.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), in)
	require.NoError(t, err)

	key := "Riyadh⇒Jeddah"
	rows, total, err := svc.List(ctx, tn.Org.OrgID, ListFilter{RouteKey: &key}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)

	supplier := tn.Supplier2.ID
	_, total, err = svc.List(ctx, tn.Org.OrgID, ListFilter{SupplierID: &supplier}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreate_Validation(t *testing.T) {
	svc, db, tn, _ := setup(t)
	other := testutil.SeedTenant(t, db, "Other")
	ctx := context.Background()

	bad := input(tn)
	bad.RouteKey = "Riyadh"
	_, err := svc.Create(ctx, actorOf(tn), bad)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	client := input(tn)
	client.SupplierID = tn.Client.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), client)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	foreign := input(tn)
	foreign.SupplierID = other.Supplier.ID.String()
	_, err = svc.Create(ctx, actorOf(tn), foreign)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestLockedWeek_RejectsAllWrites(t *testing.T) {
	svc, db, tn, _ := setup(t)
	ctx := context.Background()
	v, err := svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)
	tn.LockWeek(t, db)

	_, err = svc.Create(ctx, actorOf(tn), input(tn))
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))
	_, err = svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Committed: Committed{Day1Committed: intp(9)}})
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))
	err = svc.Delete(ctx, actorOf(tn), v.ID)
	assert.True(t, errors.Is(err, apperr.ErrWeekLocked))

	var rows []domain.SupplyCommitment
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Day1Qty)
}

func TestUpdate_MergesQuantitiesAndNotes(t *testing.T) {
	svc, _, tn, _ := setup(t)
	ctx := context.Background()
	v, err := svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)

	notes := "  night shift only "
	u, err := svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Notes: &notes, Committed: Committed{Day2Committed: intp(5)}})
	require.NoError(t, err)
	assert.Equal(t, 4, u.Day1Qty)
	assert.Equal(t, 5, u.Day2Qty)
	assert.Equal(t, 9, u.TotalCommitted)
	require.NotNil(t, u.Notes)
	assert.Equal(t, "night shift only", *u.Notes)

	_, err = svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestTenantIsolation(t *testing.T) {
	svc, db, tn, _ := setup(t)
	other := testutil.SeedTenant(t, db, "Other")
	ctx := context.Background()
	v, err := svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)

	_, err = svc.Update(ctx, actorOf(other), v.ID, UpdateInput{Committed: Committed{Day1Committed: intp(1)}})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	err = svc.Delete(ctx, actorOf(other), v.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.Get(ctx, other.Org.OrgID, v.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, actorOf(tn), v.ID))
	_, err = svc.Get(ctx, tn.Org.OrgID, v.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestQuantitiesOutOfRange(t *testing.T) {
	svc, _, tn, _ := setup(t)
	ctx := context.Background()

	in := input(tn)
	in.Day3Committed = intp(domain.MaxQuantity + 1)
	_, err := svc.Create(ctx, actorOf(tn), in)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	v, err := svc.Create(ctx, actorOf(tn), input(tn))
	require.NoError(t, err)
	_, err = svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Committed: Committed{Week1Committed: intp(-1)}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	u, err := svc.Update(ctx, actorOf(tn), v.ID, UpdateInput{Committed: Committed{Day1Committed: intp(domain.MaxQuantity)}})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantity+2, u.TotalCommitted)
}
