package user

import (
	"context"
	"errors"
	"testing"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateUserInput{UserName: "omar", Email: " Omar@Example.com", Password: "pa55word!", Fullname: "omar  alharbi"})
	require.NoError(t, err)
	assert.Equal(t, "omar@example.com", u.Email)
	assert.Equal(t, "viewer", u.Role)
	assert.Equal(t, "Omar Alharbi", u.Fullname)
	assert.Nil(t, u.OrgID)
	assert.NotEqual(t, "pa55word!", u.PasswordHash)

	_, err = svc.CreateUser(ctx, CreateUserInput{UserName: "omar2", Email: "omar@example.com", Password: "pa55word!", Fullname: "Omar"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))

	_, err = svc.CreateUser(ctx, CreateUserInput{UserName: "x", Email: "x@example.com", Password: "short", Fullname: "X"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUpdateRole(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	svc := &Service{DB: db, Rdb: rdb}
	ctx := context.Background()
	admin := tenancy.Actor{OrgID: tn.Org.OrgID, UserID: tn.User.UserID, Role: "admin"}

	orgID := tn.Org.OrgID
	member := domain.User{Fullname: "Lina", UserName: "lina", Email: "lina@example.com", PasswordHash: "x", OrgID: &orgID, Role: "viewer"}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, rdb.SAdd(ctx, "user_sessions:"+member.UserID.String(), "sid-1").Err())
	require.NoError(t, rdb.Set(ctx, "session:sid-1", "{}", 0).Err())

	u, err := svc.UpdateRole(ctx, admin, member.UserID, "supply_planner")
	require.NoError(t, err)
	assert.Equal(t, "supply_planner", u.Role)
	assert.False(t, mr.Exists("session:sid-1"))
	assert.False(t, mr.Exists("user_sessions:"+member.UserID.String()))

	_, err = svc.UpdateRole(ctx, admin, tn.User.UserID, "viewer")
	assert.True(t, errors.Is(err, apperr.ErrForbidden), "own role")

	other := testutil.SeedTenant(t, db, "Other")
	_, err = svc.UpdateRole(ctx, admin, other.User.UserID, "viewer")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svc.UpdateRole(ctx, admin, member.UserID, "owner")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUpdateRole_KeepsLastAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	svc := &Service{DB: db}
	orgID := tn.Org.OrgID
	second := domain.User{Fullname: "Noor", UserName: "noor", Email: "noor@example.com", PasswordHash: "x", OrgID: &orgID, Role: "admin"}
	require.NoError(t, db.Create(&second).Error)

	// Demote the seeded admin; second stays admin.
	_, err := svc.UpdateRole(context.Background(), tenancy.Actor{OrgID: orgID, UserID: second.UserID}, tn.User.UserID, "viewer")
	require.NoError(t, err)

	var admins int64
	db.Model(&domain.User{}).Where("org_id = ? AND role = ?", orgID, "admin").Count(&admins)
	assert.EqualValues(t, 1, admins)
}
