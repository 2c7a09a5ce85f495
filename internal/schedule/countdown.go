package schedule

import "time"

// TimeUntilChange computes the countdown to the next on/off transition.
// Returns nil when the status has no determinable next transition, or when
// the target has already elapsed (stale data rather than a negative count).
func TimeUntilChange(st Status, now time.Time) *Countdown {
	nowMinutes := MinuteOfDay(now)
	var target int
	tomorrow := false

	switch {
	case st.IsOn && st.NextPeriod != nil:
		target = TimeToMinutes(st.NextPeriod.From)
		tomorrow = st.NextPeriodDate != "" && st.NextPeriodDate != FormatDate(now)
	case !st.IsOn && st.CurrentPeriod != nil:
		target = endMinutes(*st.CurrentPeriod)
	default:
		return nil
	}

	diff := target - nowMinutes
	if tomorrow {
		diff = (minutesPerDay - nowMinutes) + target
	}
	if diff < 0 {
		return nil
	}

	return &Countdown{
		Hours:        diff / 60,
		Minutes:      diff % 60,
		TotalMinutes: diff,
	}
}
