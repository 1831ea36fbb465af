package domain

import (
	"encoding/json"
	"strconv"

	"loadplan-backend/internal/pkg/apperr"
)

const (
	DaysPerWeek    = 7
	WeeksPerPeriod = 5

	// MaxQuantity bounds a single period value so row and route sums stay in range.
	MaxQuantity = 1000000
)

// Periods holds one quantity per day (weekly orgs) and per week-of-month (monthly orgs).
type Periods struct {
	Days  [DaysPerWeek]int
	Weeks [WeeksPerPeriod]int
}

func (p Periods) DaySum() int {
	n := 0
	for _, q := range p.Days {
		n += q
	}
	return n
}

func (p Periods) WeekSum() int {
	n := 0
	for _, q := range p.Weeks {
		n += q
	}
	return n
}

// Total is the day sum when any day is non-zero, otherwise the week sum.
func (p Periods) Total() int {
	if d := p.DaySum(); d > 0 {
		return d
	}
	return p.WeekSum()
}

// PeriodQuantities is embedded in forecasts and commitments.
type PeriodQuantities struct {
	Day1Qty  int `gorm:"column:day1_qty;not null;default:0" json:"day1Qty"`
	Day2Qty  int `gorm:"column:day2_qty;not null;default:0" json:"day2Qty"`
	Day3Qty  int `gorm:"column:day3_qty;not null;default:0" json:"day3Qty"`
	Day4Qty  int `gorm:"column:day4_qty;not null;default:0" json:"day4Qty"`
	Day5Qty  int `gorm:"column:day5_qty;not null;default:0" json:"day5Qty"`
	Day6Qty  int `gorm:"column:day6_qty;not null;default:0" json:"day6Qty"`
	Day7Qty  int `gorm:"column:day7_qty;not null;default:0" json:"day7Qty"`
	Week1Qty int `gorm:"column:week1_qty;not null;default:0" json:"week1Qty"`
	Week2Qty int `gorm:"column:week2_qty;not null;default:0" json:"week2Qty"`
	Week3Qty int `gorm:"column:week3_qty;not null;default:0" json:"week3Qty"`
	Week4Qty int `gorm:"column:week4_qty;not null;default:0" json:"week4Qty"`
	Week5Qty int `gorm:"column:week5_qty;not null;default:0" json:"week5Qty"`
}

func (q PeriodQuantities) Periods() Periods {
	return Periods{
		Days:  [DaysPerWeek]int{q.Day1Qty, q.Day2Qty, q.Day3Qty, q.Day4Qty, q.Day5Qty, q.Day6Qty, q.Day7Qty},
		Weeks: [WeeksPerPeriod]int{q.Week1Qty, q.Week2Qty, q.Week3Qty, q.Week4Qty, q.Week5Qty},
	}
}

func QuantitiesFrom(p Periods) PeriodQuantities {
	return PeriodQuantities{
		Day1Qty: p.Days[0], Day2Qty: p.Days[1], Day3Qty: p.Days[2], Day4Qty: p.Days[3],
		Day5Qty: p.Days[4], Day6Qty: p.Days[5], Day7Qty: p.Days[6],
		Week1Qty: p.Weeks[0], Week2Qty: p.Weeks[1], Week3Qty: p.Weeks[2],
		Week4Qty: p.Weeks[3], Week5Qty: p.Weeks[4],
	}
}

// Columns returns the column→value map for an Updates call.
func (q PeriodQuantities) Columns() map[string]interface{} {
	p := q.Periods()
	cols := make(map[string]interface{}, DaysPerWeek+WeeksPerPeriod)
	for i, v := range p.Days {
		cols["day"+strconv.Itoa(i+1)+"_qty"] = v
	}
	for i, v := range p.Weeks {
		cols["week"+strconv.Itoa(i+1)+"_qty"] = v
	}
	return cols
}

// PeriodPatch carries optional per-period values for partial updates.
type PeriodPatch struct {
	Days  [DaysPerWeek]*int
	Weeks [WeeksPerPeriod]*int
}

func (pp PeriodPatch) Empty() bool {
	for _, v := range pp.Days {
		if v != nil {
			return false
		}
	}
	for _, v := range pp.Weeks {
		if v != nil {
			return false
		}
	}
	return true
}

// InRange reports whether every provided value is within 0..MaxQuantity.
func (pp PeriodPatch) InRange() bool {
	for _, v := range pp.Days {
		if v != nil && (*v < 0 || *v > MaxQuantity) {
			return false
		}
	}
	for _, v := range pp.Weeks {
		if v != nil && (*v < 0 || *v > MaxQuantity) {
			return false
		}
	}
	return true
}

// Validate rejects values outside 0..MaxQuantity.
func (pp PeriodPatch) Validate() error {
	if pp.InRange() {
		return nil
	}
	return apperr.Validation("Quantities must be between 0 and " + strconv.Itoa(MaxQuantity))
}

// Apply overlays the provided values on p.
func (pp PeriodPatch) Apply(p Periods) Periods {
	for i, v := range pp.Days {
		if v != nil {
			p.Days[i] = *v
		}
	}
	for i, v := range pp.Weeks {
		if v != nil {
			p.Weeks[i] = *v
		}
	}
	return p
}

// PeriodTotals is an aggregated quantity vector with an explicit total. The
// total is carried separately because each row applies the day-over-week rule
// on its own before rows are summed.
type PeriodTotals struct {
	Periods
	Total int
}

func (t *PeriodTotals) Add(p Periods, total int) {
	for i := range p.Days {
		t.Days[i] += p.Days[i]
	}
	for i := range p.Weeks {
		t.Weeks[i] += p.Weeks[i]
	}
	t.Total += total
}

func (t PeriodTotals) Minus(o PeriodTotals) PeriodTotals {
	out := t
	for i := range out.Days {
		out.Days[i] -= o.Days[i]
	}
	for i := range out.Weeks {
		out.Weeks[i] -= o.Weeks[i]
	}
	out.Total -= o.Total
	return out
}

// MarshalJSON flattens to {"day1":..,"week1":..,"total":..}.
func (t PeriodTotals) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, DaysPerWeek+WeeksPerPeriod+1)
	for i, v := range t.Days {
		m["day"+strconv.Itoa(i+1)] = v
	}
	for i, v := range t.Weeks {
		m["week"+strconv.Itoa(i+1)] = v
	}
	m["total"] = t.Total
	return json.Marshal(m)
}

func (t *PeriodTotals) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for i := range t.Days {
		t.Days[i] = m["day"+strconv.Itoa(i+1)]
	}
	for i := range t.Weeks {
		t.Weeks[i] = m["week"+strconv.Itoa(i+1)]
	}
	t.Total = m["total"]
	return nil
}
