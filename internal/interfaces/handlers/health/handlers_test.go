package health

import (
	"context"
	"testing"

	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func TestHealthEndpoints(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, "4", 0).Err())
	require.NoError(t, rdb.LPush(ctx, middleware.KeyErrorLog, `{"path":"/api/v1/demand","status":500}`).Err())

	h := &Handlers{Rdb: rdb, DB: pinger{}, HealthAdminKey: "secret"}
	app := fiber.New()
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/health/reset", h.Reset)

	status, body := testutil.Do(t, app, "GET", "/health/json", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	traffic := body["traffic"].(map[string]interface{})
	assert.Equal(t, float64(4), traffic["totalRequests"])

	status, body = testutil.Do(t, app, "GET", "/health/errors", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = testutil.Do(t, app, "GET", "/health/reset?key=wrong", "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = testutil.Do(t, app, "GET", "/health/reset?key=secret", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}

func TestHealthJSON_DegradedDatabase(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	h := &Handlers{Rdb: rdb, DB: nil}
	app := fiber.New()
	app.Get("/health/json", h.JSON)

	status, body := testutil.Do(t, app, "GET", "/health/json", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "issue", body["status"])
}
