package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.January, 31},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysIn(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	a := DateOf(time.Date(2024, time.March, 30, 12, 0, 0, 0, loc))
	b := DateOf(time.Date(2024, time.April, 1, 0, 30, 0, 0, loc))
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
}

func TestMonthsBetween(t *testing.T) {
	a := Date{2023, time.November, 30}
	assert.Equal(t, 0, MonthsBetween(a, Date{2023, time.November, 1}))
	assert.Equal(t, 3, MonthsBetween(a, Date{2024, time.February, 28}))
	assert.Equal(t, -1, MonthsBetween(a, Date{2023, time.October, 31}))
}

func TestStartOfWeekIsSunday(t *testing.T) {
	wed := time.Date(2024, time.February, 14, 18, 30, 0, 0, time.UTC)
	got := StartOfWeek(wed)
	assert.Equal(t, time.Date(2024, time.February, 11, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, Date{2024, time.February, 11}, DateOf(wed).WeekStart())

	sun := time.Date(2024, time.February, 11, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 11, 0, 0, 0, 0, time.UTC), StartOfWeek(sun))
}

func TestDateOrdering(t *testing.T) {
	a := Date{2024, time.January, 31}
	b := Date{2024, time.February, 1}
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, "2024-01-31", a.String())
}

func TestDateInConvertsLocation(t *testing.T) {
	east := time.FixedZone("east", 5*3600)
	late := time.Date(2024, time.May, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, Date{2024, time.May, 2}, DateIn(late, east))
	assert.Equal(t, Date{2024, time.May, 1}, DateIn(late, nil))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{2024, time.February, 29}, d)
	assert.Equal(t, time.Thursday, d.Weekday())

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}
