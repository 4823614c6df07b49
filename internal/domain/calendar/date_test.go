package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := calendar.Parse("2024-01-03")
	require.NoError(t, err)
	require.Equal(t, "2024-01-03", d.String())
	require.Equal(t, time.UTC, d.Time().Location())

	d, err = calendar.Parse("2024-01-03T15:04:05Z")
	require.NoError(t, err)
	require.Equal(t, "2024-01-03", d.String())
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024-1-3", "03/01/2024", "2024-02-30", "yesterday"} {
		_, err := calendar.Parse(s)
		require.ErrorIs(t, err, calendar.ErrInvalidDate, s)
	}
}

func TestDayOfWeekIndex(t *testing.T) {
	// 2024-01-01 was a Monday.
	start := calendar.MustParse("2024-01-01")
	for i := 0; i < 14; i++ {
		d := calendar.AddDays(start, i)
		require.Equal(t, i%7, calendar.DayOfWeekIndex(d), d.String())
		require.Equal(t, 1<<(i%7), calendar.DayBit(d))
	}
}

func TestWeekIndex(t *testing.T) {
	require.Equal(t, 0, calendar.WeekIndex(calendar.MustParse("2024-01-01")))
	require.Equal(t, 0, calendar.WeekIndex(calendar.MustParse("2024-01-07")))
	require.Equal(t, 1, calendar.WeekIndex(calendar.MustParse("2024-01-08")))

	// 2023 started on a Sunday, so the first Monday opens week 1.
	require.Equal(t, 0, calendar.WeekIndex(calendar.MustParse("2023-01-01")))
	require.Equal(t, 1, calendar.WeekIndex(calendar.MustParse("2023-01-02")))

	// The count restarts at the year boundary.
	require.Equal(t, 52, calendar.WeekIndex(calendar.MustParse("2024-12-30")))
	require.Equal(t, 0, calendar.WeekIndex(calendar.MustParse("2025-01-01")))
}

func TestEpochWeekIndex(t *testing.T) {
	require.Equal(t, 0, calendar.EpochWeekIndex(calendar.MustParse("1970-01-01")))
	require.Equal(t, 0, calendar.EpochWeekIndex(calendar.MustParse("1969-12-29")))
	require.Equal(t, -1, calendar.EpochWeekIndex(calendar.MustParse("1969-12-28")))
	require.Equal(t, 1, calendar.EpochWeekIndex(calendar.MustParse("1970-01-05")))

	dec := calendar.MustParse("2024-12-30")
	jan := calendar.MustParse("2025-01-06")
	require.Equal(t, 1, calendar.EpochWeekIndex(jan)-calendar.EpochWeekIndex(dec))
}

func TestEpochWeekIndex_MatchesWeekIndexWithinYear(t *testing.T) {
	base := calendar.MustParse("2023-01-01")
	baseEpoch := calendar.EpochWeekIndex(base)
	baseYear := calendar.WeekIndex(base)
	for i := 0; i < 365; i++ {
		d := calendar.AddDays(base, i)
		require.Equal(t,
			calendar.WeekIndex(d)-baseYear,
			calendar.EpochWeekIndex(d)-baseEpoch,
			d.String())
	}
}

func TestAddDaysAndDaysBetween(t *testing.T) {
	d := calendar.MustParse("2024-02-28")
	require.Equal(t, "2024-02-29", calendar.AddDays(d, 1).String())
	require.Equal(t, "2024-03-01", calendar.AddDays(d, 2).String())
	require.Equal(t, "2023-12-31", calendar.AddDays(calendar.MustParse("2024-01-01"), -1).String())

	require.Equal(t, 2, calendar.DaysBetween(d, calendar.MustParse("2024-03-01")))
	require.Equal(t, -1, calendar.DaysBetween(calendar.MustParse("2024-01-01"), calendar.MustParse("2023-12-31")))
}

func TestFromTime(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, time.March, 1, 5, 0, 0, 0, loc)
	require.Equal(t, "2024-02-29", calendar.FromTime(ts).String())

	fixed := func() time.Time { return time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC) }
	require.Equal(t, "2024-05-06", calendar.Today(fixed).String())
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Start calendar.Date `json:"start"`
		End   calendar.Date `json:"end"`
	}
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-01T00:00:00","end":null}`), &p))
	require.Equal(t, "2024-01-01", p.Start.String())
	require.True(t, p.End.IsZero())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"start":"2024-01-01","end":null}`, string(data))

	require.ErrorIs(t, json.Unmarshal([]byte(`{"start":"01/01/2024"}`), &p), calendar.ErrInvalidDate)
}

func TestMod(t *testing.T) {
	require.Equal(t, 1, calendar.Mod(-1, 2))
	require.Equal(t, 0, calendar.Mod(-4, 2))
	require.Equal(t, 2, calendar.Mod(5, 3))
}
