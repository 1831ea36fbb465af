package bulk

import (
	"context"
	"fmt"
	"testing"

	bulksvc "loadplan-backend/internal/application/bulk"
	"loadplan-backend/internal/application/catalog"
	"loadplan-backend/internal/application/demand"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func intp(v int) *int { return &v }

func setup(t *testing.T) (*fiber.App, *gorm.DB, *testutil.Tenant, *demand.ForecastView) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "Acme")
	cat := &catalog.Service{DB: db}
	dem := &demand.Service{DB: db}
	h := &Handlers{
		Targets: map[string]bulksvc.Target{
			"cities": catalog.Target{Service: cat, Kind: catalog.KindCities},
			"demand": dem,
		},
		BatchSize: 1,
	}
	app := fiber.New()
	app.Use(testutil.AsUser(tn, "admin"), middleware.RequireTenant())
	for _, entity := range []string{"cities", "demand", "suppliers"} {
		app.Post("/"+entity+"/check-dependencies-batch", h.CheckDependencies(entity))
		app.Post("/"+entity+"/bulk-delete", h.BulkDelete(entity))
	}

	actor := tenancy.Actor{OrgID: tn.Org.OrgID, UserID: tn.User.UserID}
	f, err := dem.Create(context.Background(), actor, demand.CreateInput{
		PlanningWeekID: tn.Week.ID.String(),
		ClientID:       tn.Client.ID.String(),
		PickupCityID:   tn.Riyadh.ID.String(),
		DropoffCityID:  tn.Jeddah.ID.String(),
		TruckTypeIDs:   []string{tn.Flatbed.ID.String()},
		Loads:          demand.Loads{Day1Loads: intp(5)},
	})
	require.NoError(t, err)
	return app, db, tn, f
}

func TestCheckDependencies(t *testing.T) {
	app, _, tn, _ := setup(t)

	body := fmt.Sprintf(`{"ids":[%q,%q]}`, tn.Riyadh.ID, tn.Dammam.ID)
	status, reply := testutil.Do(t, app, "POST", "/cities/check-dependencies-batch", body)
	require.Equal(t, fiber.StatusOK, status, reply)
	deps := testutil.Data(reply)
	riyadh := deps[tn.Riyadh.ID.String()].(map[string]interface{})
	assert.Equal(t, true, riyadh["hasActiveDependencies"])
	assert.Equal(t, float64(1), riyadh["count"])
	dammam := deps[tn.Dammam.ID.String()].(map[string]interface{})
	assert.Equal(t, false, dammam["hasActiveDependencies"])
}

func TestBulkDelete_WaitsForConfirmation(t *testing.T) {
	app, db, tn, _ := setup(t)
	ids := fmt.Sprintf(`[%q,%q]`, tn.Riyadh.ID, tn.Dammam.ID)

	status, reply := testutil.Do(t, app, "POST", "/cities/bulk-delete", `{"ids":`+ids+`}`)
	require.Equal(t, fiber.StatusOK, status, reply)
	data := testutil.Data(reply)
	assert.Equal(t, string(bulksvc.StateAwaitingConfirmation), data["state"])
	assert.NotContains(t, data, "deleted")

	var active int64
	require.NoError(t, db.Model(&domain.City{}).Where("org_id = ? AND is_active = ?", tn.Org.OrgID, true).Count(&active).Error)
	assert.Equal(t, int64(3), active)

	status, reply = testutil.Do(t, app, "POST", "/cities/bulk-delete", `{"ids":`+ids+`,"confirm":true}`)
	require.Equal(t, fiber.StatusOK, status, reply)
	data = testutil.Data(reply)
	assert.Equal(t, string(bulksvc.StateDone), data["state"])
	assert.Equal(t, float64(2), data["deleted"])
	assert.Equal(t, float64(0), data["skipped"])
	assert.Len(t, data["progress"], 2)

	require.NoError(t, db.Model(&domain.City{}).Where("org_id = ? AND is_active = ?", tn.Org.OrgID, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestBulkDelete_DemandWithoutDependencies(t *testing.T) {
	app, db, _, f := setup(t)

	status, reply := testutil.Do(t, app, "POST", "/demand/bulk-delete", fmt.Sprintf(`{"ids":[%q]}`, f.ID))
	require.Equal(t, fiber.StatusOK, status, reply)
	assert.Equal(t, float64(1), testutil.Data(reply)["deleted"])

	var n int64
	require.NoError(t, db.Model(&domain.DemandForecast{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBulkDelete_Rejections(t *testing.T) {
	app, _, tn, _ := setup(t)

	status, _ := testutil.Do(t, app, "POST", "/cities/bulk-delete", `{"ids":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, "POST", "/cities/bulk-delete", `{"ids":["nope"]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, "POST", "/suppliers/bulk-delete", fmt.Sprintf(`{"ids":[%q]}`, tn.Supplier.ID))
	assert.Equal(t, fiber.StatusNotFound, status)
}
