package gaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Engine computes gap targets from current store state. Results may be cached
// in Redis per (org, week, version); every write to a week bumps its version so
// a fill that raced the write lands under a key nobody reads again.
type Engine struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration

	group singleflight.Group
}

// CacheKey is the Redis key holding a week's computed gaps at version ver.
func CacheKey(orgID, weekID uuid.UUID, ver int64) string {
	return fmt.Sprintf("gaps:%s:%s:%d", orgID, weekID, ver)
}

// VersionKey is the Redis counter bumped by WeekChanged.
func VersionKey(orgID, weekID uuid.UUID) string {
	return fmt.Sprintf("gaps:ver:%s:%s", orgID, weekID)
}

func (e *Engine) cacheEnabled() bool {
	return e.Redis != nil && e.TTL > 0
}

// ComputeGaps returns one GapTarget per route that has demand or supply in the
// week, sorted by route key. Weeks of other tenants are NOT_FOUND.
func (e *Engine) ComputeGaps(ctx context.Context, orgID, weekID uuid.UUID) ([]GapTarget, error) {
	if _, err := tenancy.Find[domain.PlanningWeek](e.DB.WithContext(ctx), orgID, weekID, "Planning week"); err != nil {
		return nil, err
	}
	ver, cacheable := e.version(ctx, orgID, weekID)
	key := CacheKey(orgID, weekID, ver)
	if cacheable {
		if cached, ok := e.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	// Collapsed callers share one compute, so it must outlive whoever started it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		out, err := e.compute(flightCtx, orgID, weekID)
		if err != nil {
			return nil, err
		}
		if cacheable {
			e.writeCache(flightCtx, key, out)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]GapTarget), nil
}

// version reads the week's cache version. It must be read before the rows are
// fetched. The second result is false when the cache is off or unreachable.
func (e *Engine) version(ctx context.Context, orgID, weekID uuid.UUID) (int64, bool) {
	if !e.cacheEnabled() {
		return 0, false
	}
	ver, err := e.Redis.Get(ctx, VersionKey(orgID, weekID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		log.Warn().Err(err).Str("week_id", weekID.String()).Msg("gap cache version read failed")
		return 0, false
	}
	return ver, true
}

func (e *Engine) compute(ctx context.Context, orgID, weekID uuid.UUID) ([]GapTarget, error) {
	db := e.DB.WithContext(ctx)
	var forecasts []domain.DemandForecast
	var commitments []domain.SupplyCommitment

	var g errgroup.Group
	g.Go(func() error {
		return tenancy.Scoped(db, orgID).Where("planning_week_id = ?", weekID).
			Order("created_at ASC, id ASC").Find(&forecasts).Error
	})
	g.Go(func() error {
		return tenancy.Scoped(db, orgID).Where("planning_week_id = ?", weekID).
			Order("created_at ASC, id ASC").Find(&commitments).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	partyIDs := make([]uuid.UUID, 0, len(forecasts)+len(commitments))
	forecastIDs := make([]uuid.UUID, 0, len(forecasts))
	for _, f := range forecasts {
		partyIDs = append(partyIDs, f.ClientID)
		forecastIDs = append(forecastIDs, f.ID)
	}
	for _, c := range commitments {
		partyIDs = append(partyIDs, c.SupplierID)
	}

	names, err := partyNames(db, orgID, partyIDs)
	if err != nil {
		return nil, err
	}
	truckTypes, err := forecastTruckTypes(db, orgID, forecastIDs)
	if err != nil {
		return nil, err
	}

	frows := make([]ForecastRow, len(forecasts))
	for i, f := range forecasts {
		frows[i] = ForecastRow{Forecast: f, ClientName: names[f.ClientID], TruckTypes: truckTypes[f.ID]}
	}
	crows := make([]CommitmentRow, len(commitments))
	for i, c := range commitments {
		crows[i] = CommitmentRow{Commitment: c, SupplierName: names[c.SupplierID]}
	}
	return Aggregate(frows, crows), nil
}

func partyNames(db *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var parties []domain.Party
	if err := tenancy.Scoped(db, orgID).Where("id IN ?", ids).Find(&parties).Error; err != nil {
		return nil, err
	}
	for _, p := range parties {
		out[p.ID] = p.Name
	}
	return out, nil
}

func forecastTruckTypes(db *gorm.DB, orgID uuid.UUID, forecastIDs []uuid.UUID) (map[uuid.UUID][]TruckTypeRef, error) {
	out := make(map[uuid.UUID][]TruckTypeRef, len(forecastIDs))
	if len(forecastIDs) == 0 {
		return out, nil
	}
	var links []domain.DemandForecastTruckType
	if err := tenancy.Scoped(db, orgID).Where("forecast_id IN ?", forecastIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}
	ttIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		ttIDs = append(ttIDs, l.TruckTypeID)
	}
	var types []domain.TruckType
	if err := tenancy.Scoped(db, orgID).Where("id IN ?", ttIDs).Find(&types).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]string, len(types))
	for _, t := range types {
		byID[t.ID] = t.Name
	}
	for _, l := range links {
		out[l.ForecastID] = append(out[l.ForecastID], TruckTypeRef{ID: l.TruckTypeID, Name: byID[l.TruckTypeID]})
	}
	return out, nil
}

func (e *Engine) readCache(ctx context.Context, key string) ([]GapTarget, bool) {
	raw, err := e.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("gap cache read failed")
		}
		return nil, false
	}
	var out []GapTarget
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("gap cache entry unreadable")
		return nil, false
	}
	return out, true
}

func (e *Engine) writeCache(ctx context.Context, key string, out []GapTarget) {
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := e.Redis.Set(ctx, key, raw, e.TTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("gap cache write failed")
	}
}

// WeekChanged bumps the week's cache version. Called after any committed
// forecast, commitment or lock change; entries under older versions expire
// on their TTL.
func (e *Engine) WeekChanged(ctx context.Context, orgID, weekID uuid.UUID) {
	if e == nil || e.Redis == nil {
		return
	}
	if err := e.Redis.Incr(context.WithoutCancel(ctx), VersionKey(orgID, weekID)).Err(); err != nil {
		log.Warn().Err(err).Str("org_id", orgID.String()).Str("week_id", weekID.String()).Msg("gap cache invalidation failed")
	}
}
