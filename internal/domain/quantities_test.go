package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriods_TotalPrefersDays(t *testing.T) {
	p := Periods{Days: [7]int{1, 2, 3, 0, 0, 0, 4}, Weeks: [5]int{50, 0, 0, 0, 0}}
	assert.Equal(t, 10, p.Total())

	p = Periods{Weeks: [5]int{5, 5, 5, 5, 1}}
	assert.Equal(t, 21, p.Total())

	assert.Equal(t, 0, Periods{}.Total())
}

func TestPeriodPatch_Apply(t *testing.T) {
	three, zero := 3, 0
	base := Periods{Days: [7]int{1, 1, 1, 1, 1, 1, 1}}
	patch := PeriodPatch{}
	patch.Days[0] = &three
	patch.Days[6] = &zero

	got := patch.Apply(base)
	assert.Equal(t, [7]int{3, 1, 1, 1, 1, 1, 0}, got.Days)
	assert.False(t, patch.Empty())
	assert.True(t, PeriodPatch{}.Empty())
}

func TestQuantitiesRoundTrip(t *testing.T) {
	p := Periods{Days: [7]int{1, 2, 3, 4, 5, 6, 7}, Weeks: [5]int{8, 9, 10, 11, 12}}
	assert.Equal(t, p, QuantitiesFrom(p).Periods())

	cols := QuantitiesFrom(p).Columns()
	assert.Equal(t, 7, cols["day7_qty"])
	assert.Equal(t, 12, cols["week5_qty"])
	assert.Len(t, cols, 12)
}

func TestPeriodTotals_JSON(t *testing.T) {
	var target PeriodTotals
	target.Add(Periods{Days: [7]int{10}}, 10)
	var committed PeriodTotals
	committed.Add(Periods{Days: [7]int{4}}, 4)
	gap := target.Minus(committed)

	b, err := json.Marshal(gap)
	require.NoError(t, err)

	var m map[string]int
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, 6, m["day1"])
	assert.Equal(t, 6, m["total"])
	assert.Equal(t, 0, m["week5"])

	var back PeriodTotals
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, gap, back)
}

func TestPeriodPatch_Validate(t *testing.T) {
	top, over, neg := MaxQuantity, MaxQuantity+1, -1
	assert.NoError(t, PeriodPatch{Days: [DaysPerWeek]*int{&top}}.Validate())
	assert.Error(t, PeriodPatch{Days: [DaysPerWeek]*int{nil, &over}}.Validate())
	assert.Error(t, PeriodPatch{Weeks: [WeeksPerPeriod]*int{nil, nil, nil, nil, &neg}}.Validate())
	assert.NoError(t, PeriodPatch{}.Validate())
}
