package schedule

import "time"

// DateLayout is the calendar-date key format used by the upstream feeds ("31.12.2025").
const DateLayout = "02.01.2006"

// Window is a single planned outage interval within a day.
// "to" equal to "00:00" means end of day (24:00), and a window whose end
// time-value is smaller than its start crosses midnight into the next day.
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DayEntry is one calendar day of the published schedule, keyed by date
// and partitioned per queue. Window order within a queue is significant
// and is never re-sorted.
type DayEntry struct {
	EventDate     string              `json:"eventDate"`
	Queues        map[string][]Window `json:"queues"`
	CreatedAt     string              `json:"createdAt,omitempty"`
	ApprovedSince string              `json:"scheduleApprovedSince,omitempty"`
}

// Snapshot is one immutable fetched copy of the day-partitioned schedule.
// A new poll produces a new Snapshot, never an in-place mutation.
type Snapshot []DayEntry

// Dates returns the calendar dates present in the snapshot, in order.
func (s Snapshot) Dates() []string {
	dates := make([]string, 0, len(s))
	for _, d := range s {
		dates = append(dates, d.EventDate)
	}
	return dates
}

// Status is the derived on/off state for one queue at one instant.
// CurrentPeriod is set only during an active outage; NextPeriod is the
// window after the current one (when off) or the next upcoming window
// today or tomorrow (when on).
type Status struct {
	IsOn           bool    `json:"is_on"`
	CurrentPeriod  *Window `json:"current_period,omitempty"`
	NextPeriod     *Window `json:"next_period,omitempty"`
	NextPeriodDate string  `json:"next_period_date,omitempty"`
}

// Countdown is the time remaining until the next on/off transition.
type Countdown struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

// FormatDate renders t as a schedule date key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NextDate returns the date key one calendar day after dateStr.
// Falls back to tomorrow relative to now if dateStr does not parse.
func NextDate(dateStr string, now time.Time) string {
	d, err := time.ParseInLocation(DateLayout, dateStr, now.Location())
	if err != nil {
		d = now
	}
	return d.AddDate(0, 0, 1).Format(DateLayout)
}
