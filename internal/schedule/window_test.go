package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"00:30", 30},
		{"10:00", 600},
		{"23:59", 1439},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeToMinutes(tt.in), "TimeToMinutes(%q)", tt.in)
	}
}

func TestIsInWindow(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		now    int
		want   bool
	}{
		// Normal same-day window, inclusive start / exclusive end.
		{"normal inside", Window{From: "10:00", To: "14:00"}, 12 * 60, true},
		{"normal at start", Window{From: "10:00", To: "14:00"}, 10 * 60, true},
		{"normal at end", Window{From: "10:00", To: "14:00"}, 14 * 60, false},
		{"normal before", Window{From: "10:00", To: "14:00"}, 9 * 60, false},
		{"normal after", Window{From: "10:00", To: "14:00"}, 15 * 60, false},

		// to == 00:00 means end of day, contains [from, 1440).
		{"end of day inside", Window{From: "23:00", To: "00:00"}, 23*60 + 30, true},
		{"end of day at start", Window{From: "23:00", To: "00:00"}, 23 * 60, true},
		{"end of day last minute", Window{From: "23:00", To: "00:00"}, 1439, true},
		{"end of day midnight excluded", Window{From: "23:00", To: "00:00"}, 0, false},

		// Midnight-crossing window.
		{"wrap before midnight", Window{From: "23:00", To: "01:00"}, 23*60 + 30, true},
		{"wrap after midnight", Window{From: "23:00", To: "01:00"}, 30, true},
		{"wrap at end", Window{From: "23:00", To: "01:00"}, 60, false},
		{"wrap midday", Window{From: "23:00", To: "01:00"}, 12 * 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInWindow(tt.window, tt.now))
		})
	}
}
