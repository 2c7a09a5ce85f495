// Package ledger tracks which schedule dates have been observed and which
// upcoming-change events have already fired today, so alerts for any
// subscription are idempotent within a day.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blackout-monitor/internal/schedule"
)

// Storage is the persistence the ledger needs. *store.Store satisfies it;
// tests use an in-memory implementation.
type Storage interface {
	GetSnapshot(ctx context.Context, region, queue string) (schedule.Snapshot, error)
	GetSeenDates(ctx context.Context, region, queue string) ([]string, error)
	SetSeenDates(ctx context.Context, region, queue string, dates []string) error
	GetNotifiedEvents(ctx context.Context) (map[string]string, error)
	SetNotifiedEvents(ctx context.Context, events map[string]string) error
}

// Ledger implements the change-detection and notification-dedup bookkeeping.
type Ledger struct {
	storage Storage
}

func New(storage Storage) *Ledger {
	return &Ledger{storage: storage}
}

// ShutdownEventKey identifies an upcoming-shutdown alert by its transition
// instant, so the same shutdown never alerts twice in one day.
func ShutdownEventKey(region, queue, from string) string {
	return fmt.Sprintf("shutdown_%s_%s_%s", region, queue, from)
}

// RestorationEventKey identifies an upcoming-restoration alert.
func RestorationEventKey(region, queue, to string) string {
	return fmt.Sprintf("restoration_%s_%s_%s", region, queue, to)
}

// NewDates returns the calendar dates in snap that have not been observed
// for this subscription before, and persists the full current date list —
// but only when something new was found, to avoid redundant writes.
func (l *Ledger) NewDates(ctx context.Context, region, queue string, snap schedule.Snapshot) ([]string, error) {
	if len(snap) == 0 {
		return nil, nil
	}

	seen, err := l.storage.GetSeenDates(ctx, region, queue)
	if err != nil {
		return nil, fmt.Errorf("get seen dates: %w", err)
	}
	seenSet := make(map[string]struct{}, len(seen))
	for _, d := range seen {
		seenSet[d] = struct{}{}
	}

	current := snap.Dates()
	var newDates []string
	for _, d := range current {
		if _, ok := seenSet[d]; !ok {
			newDates = append(newDates, d)
		}
	}

	if len(newDates) > 0 {
		if err := l.storage.SetSeenDates(ctx, region, queue, current); err != nil {
			return nil, fmt.Errorf("set seen dates: %w", err)
		}
	}
	return newDates, nil
}

// HasChanged reports whether snap differs from the last persisted snapshot
// for this subscription. A missing previous snapshot is not a change: the
// initial load must never fire a spurious "schedule changed" alert.
func (l *Ledger) HasChanged(ctx context.Context, region, queue string, snap schedule.Snapshot) (bool, error) {
	old, err := l.storage.GetSnapshot(ctx, region, queue)
	if err != nil {
		return false, fmt.Errorf("get cached snapshot: %w", err)
	}
	if old == nil {
		return false, nil
	}

	oldJSON, err := json.Marshal(old)
	if err != nil {
		return false, fmt.Errorf("marshal old snapshot: %w", err)
	}
	newJSON, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("marshal new snapshot: %w", err)
	}
	return !bytes.Equal(oldJSON, newJSON), nil
}

// IsNotified reports whether the event already fired today.
func (l *Ledger) IsNotified(ctx context.Context, eventKey string, now time.Time) (bool, error) {
	events, err := l.storage.GetNotifiedEvents(ctx)
	if err != nil {
		return false, fmt.Errorf("get notified events: %w", err)
	}
	return events[eventKey] == schedule.FormatDate(now), nil
}

// MarkNotified records that the event fired today. Entries dated before
// today are pruned on every write, bounding the ledger to one day's events.
func (l *Ledger) MarkNotified(ctx context.Context, eventKey string, now time.Time) error {
	events, err := l.storage.GetNotifiedEvents(ctx)
	if err != nil {
		return fmt.Errorf("get notified events: %w", err)
	}

	today := schedule.FormatDate(now)
	pruned := make(map[string]string, len(events)+1)
	for key, day := range events {
		if day == today {
			pruned[key] = day
		}
	}
	pruned[eventKey] = today

	if err := l.storage.SetNotifiedEvents(ctx, pruned); err != nil {
		return fmt.Errorf("set notified events: %w", err)
	}
	return nil
}
