package demand

import (
	"time"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CityRef struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Code   string    `json:"code"`
	Region string    `json:"region"`
}

type WeekRef struct {
	ID         uuid.UUID `json:"id"`
	WeekStart  time.Time `json:"weekStart"`
	WeekEnd    time.Time `json:"weekEnd"`
	WeekNumber int       `json:"weekNumber"`
	Year       int       `json:"year"`
	IsLocked   bool      `json:"isLocked"`
}

// ForecastView is a forecast with its relations resolved for display.
type ForecastView struct {
	domain.DemandForecast
	Client         *Ref     `json:"client"`
	PickupCity     *CityRef `json:"pickupCity"`
	DropoffCity    *CityRef `json:"dropoffCity"`
	TruckTypes     []Ref    `json:"truckTypes"`
	DemandCategory *Ref     `json:"demandCategory"`
	PlanningWeek   *WeekRef `json:"planningWeek"`
	Creator        *Ref     `json:"creator"`
}

// resolve attaches relations with one batched query per relation type over
// the distinct ids present in rows.
func resolve(db *gorm.DB, orgID uuid.UUID, rows []domain.DemandForecast) ([]ForecastView, error) {
	out := make([]ForecastView, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	var partyIDs, cityIDs, categoryIDs, weekIDs, userIDs, forecastIDs idSet
	for _, f := range rows {
		partyIDs.add(f.ClientID)
		cityIDs.add(f.PickupCityID)
		cityIDs.add(f.DropoffCityID)
		weekIDs.add(f.PlanningWeekID)
		forecastIDs.add(f.ID)
		if f.DemandCategoryID != nil {
			categoryIDs.add(*f.DemandCategoryID)
		}
		if f.CreatedBy != nil {
			userIDs.add(*f.CreatedBy)
		}
	}

	var parties []domain.Party
	if err := lookup(db, orgID, partyIDs, &parties); err != nil {
		return nil, err
	}
	var cities []domain.City
	if err := lookup(db, orgID, cityIDs, &cities); err != nil {
		return nil, err
	}
	var categories []domain.DemandCategory
	if err := lookup(db, orgID, categoryIDs, &categories); err != nil {
		return nil, err
	}
	var weeks []domain.PlanningWeek
	if err := lookup(db, orgID, weekIDs, &weeks); err != nil {
		return nil, err
	}
	var users []domain.User
	if ids := userIDs.list(); len(ids) > 0 {
		if err := db.Select("user_id, fullname").Where("org_id = ? AND user_id IN ?", orgID, ids).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	var links []domain.DemandForecastTruckType
	if err := tenancy.Scoped(db, orgID).Where("forecast_id IN ?", forecastIDs.list()).Find(&links).Error; err != nil {
		return nil, err
	}
	var ttIDs idSet
	for _, l := range links {
		ttIDs.add(l.TruckTypeID)
	}
	var truckTypes []domain.TruckType
	if err := lookup(db, orgID, ttIDs, &truckTypes); err != nil {
		return nil, err
	}

	partyByID := make(map[uuid.UUID]*Ref, len(parties))
	for _, p := range parties {
		partyByID[p.ID] = &Ref{ID: p.ID, Name: p.Name}
	}
	cityByID := make(map[uuid.UUID]*CityRef, len(cities))
	for _, c := range cities {
		cityByID[c.ID] = &CityRef{ID: c.ID, Name: c.Name, Code: c.Code, Region: c.Region}
	}
	categoryByID := make(map[uuid.UUID]*Ref, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = &Ref{ID: c.ID, Name: c.Name}
	}
	weekByID := make(map[uuid.UUID]*WeekRef, len(weeks))
	for _, w := range weeks {
		weekByID[w.ID] = &WeekRef{ID: w.ID, WeekStart: w.WeekStart, WeekEnd: w.WeekEnd, WeekNumber: w.WeekNumber, Year: w.Year, IsLocked: w.IsLocked}
	}
	userByID := make(map[uuid.UUID]*Ref, len(users))
	for _, u := range users {
		userByID[u.UserID] = &Ref{ID: u.UserID, Name: u.Fullname}
	}
	ttName := make(map[uuid.UUID]string, len(truckTypes))
	for _, t := range truckTypes {
		ttName[t.ID] = t.Name
	}
	ttByForecast := make(map[uuid.UUID][]Ref, len(rows))
	for _, l := range links {
		ttByForecast[l.ForecastID] = append(ttByForecast[l.ForecastID], Ref{ID: l.TruckTypeID, Name: ttName[l.TruckTypeID]})
	}

	for i, f := range rows {
		v := ForecastView{
			DemandForecast: f,
			Client:         partyByID[f.ClientID],
			PickupCity:     cityByID[f.PickupCityID],
			DropoffCity:    cityByID[f.DropoffCityID],
			TruckTypes:     ttByForecast[f.ID],
			PlanningWeek:   weekByID[f.PlanningWeekID],
		}
		if v.TruckTypes == nil {
			v.TruckTypes = []Ref{}
		}
		if f.DemandCategoryID != nil {
			v.DemandCategory = categoryByID[*f.DemandCategoryID]
		}
		if f.CreatedBy != nil {
			v.Creator = userByID[*f.CreatedBy]
		}
		out[i] = v
	}
	return out, nil
}

func lookup(db *gorm.DB, orgID uuid.UUID, ids idSet, dest interface{}) error {
	list := ids.list()
	if len(list) == 0 {
		return nil
	}
	return tenancy.Scoped(db, orgID).Where("id IN ?", list).Find(dest).Error
}

// idSet collects distinct ids in first-seen order.
type idSet struct {
	seen map[uuid.UUID]struct{}
	ids  []uuid.UUID
}

func (s *idSet) add(id uuid.UUID) {
	if s.seen == nil {
		s.seen = make(map[uuid.UUID]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) list() []uuid.UUID {
	return s.ids
}
