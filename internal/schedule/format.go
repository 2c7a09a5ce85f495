package schedule

import "time"

// DayView is today's schedule for one queue, prepared for display.
type DayView struct {
	Date          string       `json:"date"`
	Queue         string       `json:"queue"`
	Periods       []PeriodView `json:"periods"`
	CreatedAt     string       `json:"created_at,omitempty"`
	ApprovedSince string       `json:"approved_since,omitempty"`
}

// PeriodView is a window annotated with whether it is active right now.
type PeriodView struct {
	Window
	IsActive bool `json:"is_active"`
}

// FormatSchedule builds the display view of today's windows for a queue.
// Returns nil when the snapshot holds nothing for the queue.
func FormatSchedule(s Snapshot, queue string, now time.Time) *DayView {
	today := FindByDate(s, FormatDate(now))
	if today == nil {
		return nil
	}
	windows, ok := today.Queues[queue]
	if !ok {
		return nil
	}

	nowMinutes := MinuteOfDay(now)
	periods := make([]PeriodView, 0, len(windows))
	for _, w := range windows {
		periods = append(periods, PeriodView{
			Window:   w,
			IsActive: IsInWindow(w, nowMinutes),
		})
	}

	return &DayView{
		Date:          today.EventDate,
		Queue:         queue,
		Periods:       periods,
		CreatedAt:     today.CreatedAt,
		ApprovedSince: today.ApprovedSince,
	}
}

// TotalOutage sums the scheduled outage duration for today's windows of a
// queue, applying the end-of-day substitution for "00:00" ends.
func TotalOutage(s Snapshot, queue string, now time.Time) time.Duration {
	view := FormatSchedule(s, queue, now)
	if view == nil {
		return 0
	}

	var total int
	for _, p := range view.Periods {
		from := TimeToMinutes(p.From)
		to := endMinutes(p.Window)
		if to < from {
			// Crosses midnight: count through to the next day's end.
			to += minutesPerDay
		}
		total += to - from
	}
	return time.Duration(total) * time.Minute
}
