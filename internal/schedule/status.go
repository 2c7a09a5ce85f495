package schedule

import "time"

// failOpen is the status returned when no usable schedule data exists.
// Absence of data is always read as "power available", never as an outage.
func failOpen() Status {
	return Status{IsOn: true}
}

// FindByDate locates the day entry for targetDate, falling back to the
// first entry when that date is absent (the schedule may be stale but is
// still usable for display). Returns nil for an empty snapshot.
func FindByDate(s Snapshot, targetDate string) *DayEntry {
	if len(s) == 0 {
		return nil
	}
	for i := range s {
		if s[i].EventDate == targetDate {
			return &s[i]
		}
	}
	return &s[0]
}

// Resolve derives the current on/off status for queue at the instant now.
//
// Windows are scanned in array order and never re-sorted: the upstream
// feed is chronological, and an unsorted feed is a broken input contract
// rather than something to fix silently.
func Resolve(s Snapshot, queue string, now time.Time) Status {
	today := FindByDate(s, FormatDate(now))
	if today == nil {
		return failOpen()
	}

	windows := today.Queues[queue]
	if len(windows) == 0 {
		return failOpen()
	}

	nowMinutes := MinuteOfDay(now)

	// Inside a window: power is off, the next period is simply the
	// following array element.
	for i, w := range windows {
		if IsInWindow(w, nowMinutes) {
			st := Status{
				IsOn:           false,
				CurrentPeriod:  &windows[i],
				NextPeriodDate: today.EventDate,
			}
			if i+1 < len(windows) {
				st.NextPeriod = &windows[i+1]
			}
			return st
		}
	}

	// Power is on: first window starting strictly after now.
	for i, w := range windows {
		if TimeToMinutes(w.From) > nowMinutes {
			return Status{
				IsOn:           true,
				NextPeriod:     &windows[i],
				NextPeriodDate: today.EventDate,
			}
		}
	}

	// Today exhausted: look one day ahead.
	tomorrowDate := NextDate(today.EventDate, now)
	for i := range s {
		if s[i].EventDate != tomorrowDate {
			continue
		}
		tw := s[i].Queues[queue]
		if len(tw) > 0 {
			return Status{
				IsOn:           true,
				NextPeriod:     &tw[0],
				NextPeriodDate: tomorrowDate,
			}
		}
	}

	return Status{IsOn: true, NextPeriodDate: today.EventDate}
}
