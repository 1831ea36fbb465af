package org

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	orgsvc "loadplan-backend/internal/application/org"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCreateOrg_RotatesSessionAsAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	u := domain.User{Fullname: "Founder", UserName: "f", Email: "f@example.com", PasswordHash: "x", Role: "viewer"}
	require.NoError(t, db.Create(&u).Error)

	h := &Handlers{Service: &orgsvc.Service{DB: db}, Rdb: rdb}
	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": u.UserID.String(), "fullname": "Founder", "role": "viewer"})
		return c.Next()
	})
	app.Post("/create-org", h.CreateOrg)

	status, _ := do(t, app, "POST", "/create-org", `{"planning_cycle":"weekly"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, "POST", "/create-org", `{"org_name":"Gulf Freight","planning_cycle":"monthly"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "monthly", data["planning_cycle"])

	var reloaded domain.User
	require.NoError(t, db.First(&reloaded, "user_id = ?", u.UserID).Error)
	assert.Equal(t, "admin", reloaded.Role)
}

func TestViewAndUpdateOrg(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	h := &Handlers{Service: &orgsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id": tn.User.UserID.String(), "org_id": tn.Org.OrgID.String(), "role": "admin",
		})
		return c.Next()
	})
	app.Get("/view-org", middleware.RequireTenant(), h.ViewOrg)
	app.Patch("/update-org", middleware.RequireTenant(), h.UpdateOrg)

	status, body := do(t, app, "GET", "/view-org", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Acme", data["org_name"])
	assert.Len(t, data["employees"], 1)

	status, body = do(t, app, "PATCH", "/update-org", `{"week_start_day":1}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]interface{})["week_start_day"])

	status, _ = do(t, app, "PATCH", "/update-org", `{"week_start_day":9}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
