// Package gaps compares demand targets with supply commitments per route.
package gaps

import (
	"math"
	"sort"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
)

// Route status labels.
const (
	StatusFillRisk       = "FILL_RISK"
	StatusCapacityFilled = "CAPACITY_FILLED"
)

type TruckTypeRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ClientBreakdown is one client's share of a route's target.
type ClientBreakdown struct {
	ClientID    uuid.UUID           `json:"clientId"`
	ClientName  string              `json:"clientName"`
	Target      domain.PeriodTotals `json:"target"`
	ForecastIDs []uuid.UUID         `json:"forecastIds"`
}

// CommitmentView is a raw commitment row as shown for edit-in-place.
type CommitmentView struct {
	ID           uuid.UUID           `json:"id"`
	SupplierID   uuid.UUID           `json:"supplierId"`
	SupplierName string              `json:"supplierName"`
	Committed    domain.PeriodTotals `json:"committed"`
	Notes        *string             `json:"notes"`
}

// GapTarget is the computed plan state of one route in one planning week.
type GapTarget struct {
	RouteKey    routekey.Key        `json:"routeKey"`
	PickupCity  string              `json:"pickupCity"`
	DropoffCity string              `json:"dropoffCity"`
	Target      domain.PeriodTotals `json:"target"`
	Committed   domain.PeriodTotals `json:"committed"`
	Gap         domain.PeriodTotals `json:"gap"`
	GapPercent  int                 `json:"gapPercent"`
	Status      string              `json:"status"`
	Clients     []ClientBreakdown   `json:"clients"`
	Commitments []CommitmentView    `json:"commitments"`
	TruckTypes  []TruckTypeRef      `json:"truckTypes"`
}

// ForecastRow is a forecast with its display relations resolved.
type ForecastRow struct {
	Forecast   domain.DemandForecast
	ClientName string
	TruckTypes []TruckTypeRef
}

// CommitmentRow is a commitment with its supplier name resolved.
type CommitmentRow struct {
	Commitment   domain.SupplyCommitment
	SupplierName string
}

// Aggregate groups rows by route key and derives target, committed and gap
// per period. Totals add each row's stored total, so the day-over-week rule
// is applied per row. Output is sorted by route key.
func Aggregate(forecasts []ForecastRow, commitments []CommitmentRow) []GapTarget {
	byRoute := make(map[routekey.Key]*routeAcc)
	acc := func(k routekey.Key) *routeAcc {
		r, ok := byRoute[k]
		if !ok {
			r = &routeAcc{clients: map[uuid.UUID]*ClientBreakdown{}, truckTypes: map[uuid.UUID]string{}}
			byRoute[k] = r
		}
		return r
	}

	for _, fr := range forecasts {
		f := fr.Forecast
		r := acc(f.RouteKey)
		p := f.Periods()
		r.target.Add(p, f.TotalQty)

		c, ok := r.clients[f.ClientID]
		if !ok {
			c = &ClientBreakdown{ClientID: f.ClientID, ClientName: fr.ClientName, ForecastIDs: []uuid.UUID{}}
			r.clients[f.ClientID] = c
		}
		c.Target.Add(p, f.TotalQty)
		c.ForecastIDs = append(c.ForecastIDs, f.ID)

		for _, tt := range fr.TruckTypes {
			r.truckTypes[tt.ID] = tt.Name
		}
	}

	for _, cr := range commitments {
		s := cr.Commitment
		r := acc(s.RouteKey)
		var committed domain.PeriodTotals
		committed.Add(s.Periods(), s.TotalCommitted)
		r.committed.Add(s.Periods(), s.TotalCommitted)
		r.commitments = append(r.commitments, CommitmentView{
			ID:           s.ID,
			SupplierID:   s.SupplierID,
			SupplierName: cr.SupplierName,
			Committed:    committed,
			Notes:        s.Notes,
		})
	}

	out := make([]GapTarget, 0, len(byRoute))
	for key, r := range byRoute {
		out = append(out, r.build(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteKey < out[j].RouteKey })
	return out
}

type routeAcc struct {
	target      domain.PeriodTotals
	committed   domain.PeriodTotals
	clients     map[uuid.UUID]*ClientBreakdown
	commitments []CommitmentView
	truckTypes  map[uuid.UUID]string
}

func (r *routeAcc) build(key routekey.Key) GapTarget {
	gap := r.target.Minus(r.committed)
	g := GapTarget{
		RouteKey:    key,
		PickupCity:  string(key),
		Target:      r.target,
		Committed:   r.committed,
		Gap:         gap,
		GapPercent:  GapPercent(gap.Total, r.target.Total),
		Status:      StatusCapacityFilled,
		Clients:     make([]ClientBreakdown, 0, len(r.clients)),
		Commitments: r.commitments,
		TruckTypes:  make([]TruckTypeRef, 0, len(r.truckTypes)),
	}
	if gap.Total > 0 {
		g.Status = StatusFillRisk
	}
	if pickup, dropoff, err := routekey.Decode(key); err == nil {
		g.PickupCity, g.DropoffCity = pickup, dropoff
	}
	if g.Commitments == nil {
		g.Commitments = []CommitmentView{}
	}

	for _, c := range r.clients {
		g.Clients = append(g.Clients, *c)
	}
	sort.Slice(g.Clients, func(i, j int) bool {
		if g.Clients[i].ClientName != g.Clients[j].ClientName {
			return g.Clients[i].ClientName < g.Clients[j].ClientName
		}
		return g.Clients[i].ClientID.String() < g.Clients[j].ClientID.String()
	})
	for id, name := range r.truckTypes {
		g.TruckTypes = append(g.TruckTypes, TruckTypeRef{ID: id, Name: name})
	}
	sort.Slice(g.TruckTypes, func(i, j int) bool {
		if g.TruckTypes[i].Name != g.TruckTypes[j].Name {
			return g.TruckTypes[i].Name < g.TruckTypes[j].Name
		}
		return g.TruckTypes[i].ID.String() < g.TruckTypes[j].ID.String()
	})
	return g
}

// GapPercent is round(gap/target*100) with halves rounded up, or 0 without a
// target. Oversupply yields a negative percentage.
func GapPercent(gap, target int) int {
	if target <= 0 {
		return 0
	}
	return int(math.Floor(float64(gap)/float64(target)*100 + 0.5))
}
