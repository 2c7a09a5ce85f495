package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeUntilChange_OffUntilWindowEnd(t *testing.T) {
	// schedule [{10:00,14:00}], now 12:00 → off, 120 minutes to restoration.
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "10:00", To: "14:00"})
	st := Resolve(snap, "4.1", noon)

	cd := TimeUntilChange(st, noon)
	require.NotNil(t, cd)
	assert.Equal(t, 120, cd.TotalMinutes)
	assert.Equal(t, 2, cd.Hours)
	assert.Equal(t, 0, cd.Minutes)
}

func TestTimeUntilChange_EndOfDayWindow(t *testing.T) {
	// schedule [{22:00,00:00}], now 23:00 → off, 60 minutes to midnight.
	now := time.Date(2025, time.November, 10, 23, 0, 0, 0, time.UTC)
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "22:00", To: "00:00"})
	st := Resolve(snap, "4.1", now)
	require.False(t, st.IsOn)

	cd := TimeUntilChange(st, now)
	require.NotNil(t, cd)
	assert.Equal(t, 60, cd.TotalMinutes)
}

func TestTimeUntilChange_NextPeriodTomorrow(t *testing.T) {
	// Today's windows all elapsed, tomorrow starts 06:00, now 23:50 → 370
	// minutes. An entry with no windows at all would fail open instead.
	now := time.Date(2025, time.November, 10, 23, 50, 0, 0, time.UTC)
	snap := Snapshot{
		{EventDate: "10.11.2025", Queues: map[string][]Window{
			"4.1": {{From: "06:00", To: "09:00"}},
		}},
		{EventDate: "11.11.2025", Queues: map[string][]Window{
			"4.1": {{From: "06:00", To: "10:00"}},
		}},
	}

	st := Resolve(snap, "4.1", now)
	require.True(t, st.IsOn)
	require.NotNil(t, st.NextPeriod)
	require.Equal(t, "11.11.2025", st.NextPeriodDate)

	cd := TimeUntilChange(st, now)
	require.NotNil(t, cd)
	assert.Equal(t, 370, cd.TotalMinutes)
	assert.Equal(t, 6, cd.Hours)
	assert.Equal(t, 10, cd.Minutes)
}

func TestTimeUntilChange_SameDayUpcoming(t *testing.T) {
	snap := daySnapshot("10.11.2025", "4.1", Window{From: "12:45", To: "14:00"})
	st := Resolve(snap, "4.1", noon)
	require.True(t, st.IsOn)

	cd := TimeUntilChange(st, noon)
	require.NotNil(t, cd)
	assert.Equal(t, 45, cd.TotalMinutes)
	assert.Equal(t, 0, cd.Hours)
	assert.Equal(t, 45, cd.Minutes)
}

func TestTimeUntilChange_NegativeDiffIsNil(t *testing.T) {
	// Stale status pointing at a window that already started.
	st := Status{
		IsOn:           true,
		NextPeriod:     &Window{From: "08:00", To: "10:00"},
		NextPeriodDate: "10.11.2025",
	}
	assert.Nil(t, TimeUntilChange(st, noon))
}

func TestTimeUntilChange_NoTransition(t *testing.T) {
	assert.Nil(t, TimeUntilChange(Status{IsOn: true}, noon))
	assert.Nil(t, TimeUntilChange(Status{IsOn: false}, noon))
}
