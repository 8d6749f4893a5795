package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOffset(t *testing.T) {
	cases := map[Weekday]int{Mon: 0, Tue: 1, Wed: 2, Thu: 3, Fri: 4, Sat: 0, "Sun": 0, "": 0}
	for day, want := range cases {
		assert.Equal(t, want, day.WeekOffset(), "day %q", day)
	}
}

func TestWeekdayValidAndOrder(t *testing.T) {
	assert.True(t, Sat.Valid())
	assert.False(t, Weekday("Sun").Valid())
	assert.Less(t, Fri.Order(), Sat.Order())
	assert.Equal(t, 7, Weekday("x").Order())
}

func TestWeekdayOf(t *testing.T) {
	monday, err := ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, Mon, WeekdayOf(monday))
	assert.Equal(t, Sat, WeekdayOf(monday.AddDate(0, 0, 5)))
	assert.Equal(t, Weekday(""), WeekdayOf(monday.AddDate(0, 0, 6)))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("04/03/2024")
	assert.Error(t, err)
	_, _, err = ParseMonth("2024-13")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	first, next, err := ParseMonth("2024-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	in, _ := ParseDate("2024-03-31")
	out, _ := ParseDate("2024-04-01")
	assert.True(t, r.Contains(in))
	assert.False(t, r.Contains(out))
	assert.Equal(t, "2024-03-01..2024-03-31", r.Key())

	open, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, open.Contains(out))
	assert.Equal(t, "-..-", open.Key())

	_, err = ParseDateRange("2024-03-10", "2024-03-01")
	assert.Error(t, err)
}

func TestGroupByTitleKeepsFirstSeenOrder(t *testing.T) {
	entries := []ScheduleEntry{
		{SlotID: 1, ClassTitle: "CSE 2022 (B)"},
		{SlotID: 2, ClassTitle: "CSE 2022 (A)"},
		{SlotID: 3, ClassTitle: "CSE 2022 (B)"},
	}
	groups := GroupByTitle(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, "CSE 2022 (B)", groups[0].Title)
	assert.Equal(t, []int64{1, 3}, []int64{groups[0].Slots[0].SlotID, groups[0].Slots[1].SlotID})
	assert.Equal(t, "CSE 2022 (A)", groups[1].Title)

	assert.Empty(t, GroupByTitle(nil))
}
