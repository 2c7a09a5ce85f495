package region

import (
	"encoding/json"
	"errors"
	"fmt"

	"blackout-monitor/internal/schedule"
)

// ErrUnknownRegion is returned when a region key has no registered endpoint.
var ErrUnknownRegion = errors.New("unknown region")

// Region describes one supported oblast: its display name, the upstream
// schedule endpoint, the queues it publishes, and an adapter that
// normalizes the endpoint's response into a Snapshot.
type Region struct {
	Key      string
	Name     string
	Endpoint string
	Queues   []string
	Parse    func(data []byte) (schedule.Snapshot, error)
}

// parseStandard decodes the common schedule-by-queue response shape.
func parseStandard(data []byte) (schedule.Snapshot, error) {
	var snap schedule.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return snap, nil
}

// regions is the fixed registry of supported regions. New regions are
// added here with their own endpoint and, if needed, response adapter.
var regions = map[string]Region{
	"IF": {
		Key:      "IF",
		Name:     "Івано-Франківська",
		Endpoint: "https://be-svitlo.oe.if.ua/schedule-by-queue",
		Queues: []string{
			"1.1", "1.2", "2.1", "2.2", "3.1", "3.2",
			"4.1", "4.2", "5.1", "5.2", "6.1", "6.2",
		},
		Parse: parseStandard,
	},
}

// Get returns the region for key, or ErrUnknownRegion.
func Get(key string) (Region, error) {
	r, ok := regions[key]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}
	return r, nil
}

// Name returns the display name for key, or the key itself when unknown.
func Name(key string) string {
	if r, ok := regions[key]; ok {
		return r.Name
	}
	return key
}

// KeyFromName maps a display name back to its region key. Unrecognized
// names are returned as-is, mirroring the fallback in Name.
func KeyFromName(name string) string {
	for key, r := range regions {
		if r.Name == name {
			return key
		}
	}
	return name
}

// All returns every registered region.
func All() []Region {
	result := make([]Region, 0, len(regions))
	for _, r := range regions {
		result = append(result, r)
	}
	return result
}

// HasQueue reports whether the region publishes the given queue.
func (r Region) HasQueue(queue string) bool {
	for _, q := range r.Queues {
		if q == queue {
			return true
		}
	}
	return false
}
