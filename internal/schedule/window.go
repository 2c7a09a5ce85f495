package schedule

import (
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeToMinutes converts an "HH:MM" string to minutes since midnight.
// Malformed input yields 0.
func TimeToMinutes(timeStr string) int {
	h, m, ok := strings.Cut(timeStr, ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}

// MinuteOfDay returns t's minutes since local midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// endMinutes returns the window's end in minutes, with "00:00" meaning
// end of day (1440), not the same instant as midnight-start.
func endMinutes(w Window) int {
	to := TimeToMinutes(w.To)
	if to == 0 {
		return minutesPerDay
	}
	return to
}

// IsInWindow reports whether nowMinutes falls inside the window.
// The start bound is inclusive, the end bound exclusive. A window whose
// end (after the 00:00 substitution) is still before its start crosses
// midnight: containment then holds after the start OR before the end.
func IsInWindow(w Window, nowMinutes int) bool {
	from := TimeToMinutes(w.From)
	to := endMinutes(w)

	if to < from {
		return nowMinutes >= from || nowMinutes < to
	}
	return nowMinutes >= from && nowMinutes < to
}
