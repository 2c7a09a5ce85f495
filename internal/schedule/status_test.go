package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)

func daySnapshot(date string, queue string, windows ...Window) Snapshot {
	return Snapshot{{
		EventDate: date,
		Queues:    map[string][]Window{queue: windows},
	}}
}

func TestResolve_EmptySnapshot(t *testing.T) {
	st := Resolve(nil, "4.1", noon)
	assert.True(t, st.IsOn)
	assert.Nil(t, st.CurrentPeriod)
	assert.Nil(t, st.NextPeriod)
	assert.Empty(t, st.NextPeriodDate)
}

func TestResolve_NoWindowsForQueue(t *testing.T) {
	snap := daySnapshot("10.11.2025", "1.1", Window{From: "10:00", To: "14:00"})
	st := Resolve(snap, "4.1", noon)
	assert.True(t, st.IsOn)
	assert.Nil(t, st.NextPeriod)
}

func TestResolve_InsideWindow(t *testing.T) {
	snap := daySnapshot("10.11.2025", "4.1",
		Window{From: "10:00", To: "14:00"},
		Window{From: "18:00", To: "20:00"},
	)

	st := Resolve(snap, "4.1", noon)
	assert.False(t, st.IsOn)
	require.NotNil(t, st.CurrentPeriod)
	assert.Equal(t, Window{From: "10:00", To: "14:00"}, *st.CurrentPeriod)
	require.NotNil(t, st.NextPeriod)
	assert.Equal(t, Window{From: "18:00", To: "20:00"}, *st.NextPeriod)
	assert.Equal(t, "10.11.2025", st.NextPeriodDate)
}

func TestResolve_InsideLastWindow(t *testing.T) {
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "10:00", To: "14:00"})

	st := Resolve(snap, "4.1", noon)
	assert.False(t, st.IsOn)
	assert.Nil(t, st.NextPeriod, "last window has no successor")
	assert.Equal(t, "10.11.2025", st.NextPeriodDate)
}

func TestResolve_OnWithUpcomingWindow(t *testing.T) {
	snap := daySnapshot("10.11.2025", "4.1",
		Window{From: "08:00", To: "10:00"},
		Window{From: "16:00", To: "18:00"},
	)

	st := Resolve(snap, "4.1", noon)
	assert.True(t, st.IsOn)
	assert.Nil(t, st.CurrentPeriod)
	require.NotNil(t, st.NextPeriod)
	assert.Equal(t, Window{From: "16:00", To: "18:00"}, *st.NextPeriod)
}

func TestResolve_ArrayOrderNotResorted(t *testing.T) {
	// Unsorted input: the first array element starting after now wins,
	// even though it is not chronologically nearest.
	snap := daySnapshot("10.11.2025", "4.1",
		Window{From: "20:00", To: "22:00"},
		Window{From: "14:00", To: "16:00"},
	)

	st := Resolve(snap, "4.1", noon)
	assert.True(t, st.IsOn)
	require.NotNil(t, st.NextPeriod)
	assert.Equal(t, "20:00", st.NextPeriod.From)
}

func TestResolve_NextDayLookahead(t *testing.T) {
	lateEvening := time.Date(2025, time.November, 10, 23, 50, 0, 0, time.UTC)
	snap := Snapshot{
		{EventDate: "10.11.2025", Queues: map[string][]Window{
			"4.1": {{From: "06:00", To: "09:00"}},
		}},
		{EventDate: "11.11.2025", Queues: map[string][]Window{
			"4.1": {{From: "06:00", To: "10:00"}},
		}},
	}

	st := Resolve(snap, "4.1", lateEvening)
	assert.True(t, st.IsOn)
	require.NotNil(t, st.NextPeriod)
	assert.Equal(t, Window{From: "06:00", To: "10:00"}, *st.NextPeriod)
	assert.Equal(t, "11.11.2025", st.NextPeriodDate)
}

func TestResolve_TodayExhaustedNoTomorrow(t *testing.T) {
	lateEvening := time.Date(2025, time.November, 10, 23, 50, 0, 0, time.UTC)
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "06:00", To: "09:00"})

	st := Resolve(snap, "4.1", lateEvening)
	assert.True(t, st.IsOn)
	assert.Nil(t, st.NextPeriod)
	assert.Equal(t, "10.11.2025", st.NextPeriodDate)
}

func TestResolve_StaleSnapshotFallsBackToFirstEntry(t *testing.T) {
	// Today (10.11) is missing, so the first entry is used for display.
	snap := daySnapshot("08.11.2025", "4.1", Window{From: "10:00", To: "14:00"})

	st := Resolve(snap, "4.1", noon)
	assert.False(t, st.IsOn)
	require.NotNil(t, st.CurrentPeriod)
	assert.Equal(t, "08.11.2025", st.NextPeriodDate)
}

func TestResolve_WrapAroundWindowAfterMidnight(t *testing.T) {
	afterMidnight := time.Date(2025, time.November, 10, 0, 30, 0, 0, time.UTC)
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "23:00", To: "01:00"})

	st := Resolve(snap, "4.1", afterMidnight)
	assert.False(t, st.IsOn)
	require.NotNil(t, st.CurrentPeriod)
	assert.Equal(t, "23:00", st.CurrentPeriod.From)
}

func TestFormatSchedule(t *testing.T) {
	snap := Snapshot{{
		EventDate:     "10.11.2025",
		CreatedAt:     "2025-11-09T18:00:00Z",
		ApprovedSince: "2025-11-09T17:00:00Z",
		Queues: map[string][]Window{
			"4.1": {
				{From: "10:00", To: "14:00"},
				{From: "18:00", To: "20:00"},
			},
		},
	}}

	view := FormatSchedule(snap, "4.1", noon)
	require.NotNil(t, view)
	assert.Equal(t, "10.11.2025", view.Date)
	assert.Equal(t, "4.1", view.Queue)
	require.Len(t, view.Periods, 2)
	assert.True(t, view.Periods[0].IsActive)
	assert.False(t, view.Periods[1].IsActive)
	assert.Equal(t, "2025-11-09T18:00:00Z", view.CreatedAt)

	assert.Nil(t, FormatSchedule(snap, "9.9", noon))
	assert.Nil(t, FormatSchedule(nil, "4.1", noon))
}

func TestTotalOutage(t *testing.T) {
	snap := daySnapshot("10.11.2025", "4.1",
		Window{From: "10:00", To: "14:00"},
		Window{From: "22:00", To: "00:00"},
	)

	assert.Equal(t, 6*time.Hour, TotalOutage(snap, "4.1", noon))
	assert.Equal(t, time.Duration(0), TotalOutage(snap, "9.9", noon))
}
