package audit

import (
	"context"
	"testing"
	"time"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndList_ScopedToOrg(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	org, other := uuid.New(), uuid.New()
	entity := uuid.NewString()

	require.NoError(t, svc.Write(ctx, Entry{OrgID: org, Action: ActionCreate, EntityType: EntityDemandForecast, EntityID: entity,
		Metadata: map[string]interface{}{"routeKey": "Riyadh⇒Jeddah"}}))
	require.NoError(t, svc.Write(ctx, Entry{OrgID: org, Action: ActionDelete, EntityType: EntityDemandForecast, EntityID: entity}))
	require.NoError(t, svc.Write(ctx, Entry{OrgID: org, Action: ActionCreate, EntityType: EntityCity, EntityID: uuid.NewString()}))
	require.NoError(t, svc.Write(ctx, Entry{OrgID: other, Action: ActionCreate, EntityType: EntityDemandForecast, EntityID: entity}))

	logs, total, err := svc.List(ctx, org, Filter{EntityType: EntityDemandForecast, EntityID: entity}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, org, l.OrgID)
	}

	all, total, err := svc.List(ctx, org, Filter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 2)
}

func TestRecord_WritesInBackground(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	org := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	svc.Record(ctx, Entry{OrgID: org, Action: ActionLock, EntityType: EntityPlanningWeek, EntityID: uuid.NewString()})
	cancel()

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&domain.AuditLog{}).Where("org_id = ?", org).Count(&n)
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
