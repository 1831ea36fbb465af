package gaps

import (
	"testing"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forecast(key routekey.Key, client uuid.UUID, days ...int) domain.DemandForecast {
	var p domain.Periods
	copy(p.Days[:], days)
	return domain.DemandForecast{ID: uuid.New(), ClientID: client, RouteKey: key, PeriodQuantities: domain.QuantitiesFrom(p), TotalQty: p.Total()}
}

func commitment(key routekey.Key, supplier uuid.UUID, days ...int) domain.SupplyCommitment {
	var p domain.Periods
	copy(p.Days[:], days)
	return domain.SupplyCommitment{ID: uuid.New(), SupplierID: supplier, RouteKey: key, PeriodQuantities: domain.QuantitiesFrom(p), TotalCommitted: p.Total()}
}

func TestAggregate_Undersupply(t *testing.T) {
	key := routekey.Key("Riyadh⇒Jeddah")
	client := uuid.New()
	out := Aggregate(
		[]ForecastRow{{Forecast: forecast(key, client, 60, 40), ClientName: "Almarai"}},
		[]CommitmentRow{{Commitment: commitment(key, uuid.New(), 30, 30), SupplierName: "Fast"}},
	)
	require.Len(t, out, 1)
	g := out[0]
	assert.Equal(t, 100, g.Target.Total)
	assert.Equal(t, 60, g.Committed.Total)
	assert.Equal(t, 40, g.Gap.Total)
	assert.Equal(t, 40, g.GapPercent)
	assert.Equal(t, 30, g.Gap.Days[0])
	assert.Equal(t, 10, g.Gap.Days[1])
	assert.Equal(t, StatusFillRisk, g.Status)
	assert.Equal(t, "Riyadh", g.PickupCity)
	assert.Equal(t, "Jeddah", g.DropoffCity)
}

func TestAggregate_OversupplyNotClamped(t *testing.T) {
	key := routekey.Key("Riyadh⇒Jeddah")
	out := Aggregate(
		[]ForecastRow{{Forecast: forecast(key, uuid.New(), 100)}},
		[]CommitmentRow{{Commitment: commitment(key, uuid.New(), 70)}, {Commitment: commitment(key, uuid.New(), 50)}},
	)
	require.Len(t, out, 1)
	assert.Equal(t, 120, out[0].Committed.Total)
	assert.Equal(t, -20, out[0].Gap.Total)
	assert.Equal(t, -20, out[0].GapPercent)
	assert.Equal(t, -20, out[0].Gap.Days[0])
	assert.Equal(t, StatusCapacityFilled, out[0].Status)
	assert.Len(t, out[0].Commitments, 2)
}

func TestAggregate_GroupsClientsAndSortsRoutes(t *testing.T) {
	a := routekey.Key("Riyadh⇒Jeddah")
	b := routekey.Key("Dammam⇒Riyadh")
	c1, c2 := uuid.New(), uuid.New()
	flatbed := TruckTypeRef{ID: uuid.New(), Name: "Flatbed"}
	reefer := TruckTypeRef{ID: uuid.New(), Name: "Reefer"}

	out := Aggregate([]ForecastRow{
		{Forecast: forecast(a, c1, 5), ClientName: "Sadafco", TruckTypes: []TruckTypeRef{reefer}},
		{Forecast: forecast(a, c2, 3), ClientName: "Almarai", TruckTypes: []TruckTypeRef{flatbed}},
		{Forecast: forecast(a, c1, 0, 2), ClientName: "Sadafco", TruckTypes: []TruckTypeRef{reefer, flatbed}},
		{Forecast: forecast(b, c2, 1), ClientName: "Almarai"},
	}, nil)

	require.Len(t, out, 2)
	assert.Equal(t, b, out[0].RouteKey)
	assert.Equal(t, a, out[1].RouteKey)

	ga := out[1]
	assert.Equal(t, 10, ga.Target.Total)
	require.Len(t, ga.Clients, 2)
	assert.Equal(t, "Almarai", ga.Clients[0].ClientName)
	assert.Equal(t, 3, ga.Clients[0].Target.Total)
	assert.Equal(t, "Sadafco", ga.Clients[1].ClientName)
	assert.Equal(t, 7, ga.Clients[1].Target.Total)
	assert.Len(t, ga.Clients[1].ForecastIDs, 2)
	assert.Equal(t, []TruckTypeRef{flatbed, reefer}, ga.TruckTypes)
	assert.Empty(t, ga.Commitments)
	assert.NotNil(t, ga.Commitments)
}

func TestAggregate_WeeklyQuantitiesAndMixedRows(t *testing.T) {
	key := routekey.Key("Riyadh⇒Jeddah")
	monthly := domain.Periods{Weeks: [domain.WeeksPerPeriod]int{4, 4, 4, 4, 2}}
	f := domain.DemandForecast{ID: uuid.New(), ClientID: uuid.New(), RouteKey: key,
		PeriodQuantities: domain.QuantitiesFrom(monthly), TotalQty: monthly.Total()}

	out := Aggregate([]ForecastRow{{Forecast: f}}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, 18, out[0].Target.Total)
	assert.Equal(t, 2, out[0].Target.Weeks[4])
	assert.Equal(t, 100, out[0].GapPercent)
}

func TestAggregate_CommitmentWithoutDemand(t *testing.T) {
	key := routekey.Key("Jeddah⇒Riyadh")
	out := Aggregate(nil, []CommitmentRow{{Commitment: commitment(key, uuid.New(), 5)}})
	require.Len(t, out, 1)
	assert.Equal(t, -5, out[0].Gap.Total)
	assert.Equal(t, 0, out[0].GapPercent)
	assert.Empty(t, out[0].Clients)
}

func TestAggregate_Empty(t *testing.T) {
	out := Aggregate(nil, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestGapPercent(t *testing.T) {
	assert.Equal(t, 60, GapPercent(6, 10))
	assert.Equal(t, 33, GapPercent(1, 3))
	assert.Equal(t, 67, GapPercent(2, 3))
	assert.Equal(t, 50, GapPercent(1, 2))
	assert.Equal(t, 0, GapPercent(5, 0))
	assert.Equal(t, -20, GapPercent(-20, 100))
}
