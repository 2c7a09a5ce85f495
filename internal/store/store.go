package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"blackout-monitor/internal/schedule"
)

// Key layout. Absence of any key is a valid "no data yet" state.
const (
	keySchedule   = "blackout:schedule:%s:%s"    // region, queue → snapshot JSON
	keyLastUpdate = "blackout:last_update:%s:%s" // region, queue → RFC3339
	keySeenDates  = "blackout:seen_dates:%s:%s"  // region, queue → JSON string array
	keyNotified   = "blackout:notified_events"   // event key → day string, JSON object
	keyRegion     = "blackout:region"
	keyQueue      = "blackout:queue"
)

// Defaults for the current region/queue preference.
const (
	DefaultRegion = "IF"
	DefaultQueue  = "4.1"
)

// Store is the Redis-backed key/value persistence collaborator: cached
// snapshots, per-subscription seen dates, the notified-events ledger, and
// the current region/queue preference.
type Store struct {
	Client *redis.Client
}

func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{Client: client}, nil
}

func (s *Store) Close() error {
	return s.Client.Close()
}

// GetSnapshot returns the cached snapshot for a subscription, or nil when
// none has been stored yet.
func (s *Store) GetSnapshot(ctx context.Context, region, queue string) (schedule.Snapshot, error) {
	val, err := s.Client.Get(ctx, fmt.Sprintf(keySchedule, region, queue)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap schedule.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal cached snapshot: %w", err)
	}
	return snap, nil
}

// SetSnapshot stores the snapshot and stamps the last-update time.
func (s *Store) SetSnapshot(ctx context.Context, region, queue string, snap schedule.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.Client.Set(ctx, fmt.Sprintf(keySchedule, region, queue), data, 0).Err(); err != nil {
		return err
	}
	return s.Client.Set(ctx, fmt.Sprintf(keyLastUpdate, region, queue),
		time.Now().Format(time.RFC3339), 0).Err()
}

// GetLastUpdate returns when the subscription's snapshot was last stored.
// Zero time when never stored.
func (s *Store) GetLastUpdate(ctx context.Context, region, queue string) (time.Time, error) {
	val, err := s.Client.Get(ctx, fmt.Sprintf(keyLastUpdate, region, queue)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

// GetSeenDates returns the calendar dates already observed for a subscription.
func (s *Store) GetSeenDates(ctx context.Context, region, queue string) ([]string, error) {
	val, err := s.Client.Get(ctx, fmt.Sprintf(keySeenDates, region, queue)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal([]byte(val), &dates); err != nil {
		return nil, fmt.Errorf("unmarshal seen dates: %w", err)
	}
	return dates, nil
}

// SetSeenDates replaces the observed-dates list for a subscription.
func (s *Store) SetSeenDates(ctx context.Context, region, queue string, dates []string) error {
	data, err := json.Marshal(dates)
	if err != nil {
		return fmt.Errorf("marshal seen dates: %w", err)
	}
	return s.Client.Set(ctx, fmt.Sprintf(keySeenDates, region, queue), data, 0).Err()
}

// GetNotifiedEvents returns the ledger of event keys mapped to the day
// they last fired on.
func (s *Store) GetNotifiedEvents(ctx context.Context) (map[string]string, error) {
	val, err := s.Client.Get(ctx, keyNotified).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	events := map[string]string{}
	if err := json.Unmarshal([]byte(val), &events); err != nil {
		return nil, fmt.Errorf("unmarshal notified events: %w", err)
	}
	return events, nil
}

// SetNotifiedEvents replaces the notified-events ledger.
func (s *Store) SetNotifiedEvents(ctx context.Context, events map[string]string) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal notified events: %w", err)
	}
	return s.Client.Set(ctx, keyNotified, data, 0).Err()
}

// GetRegion returns the current region preference.
func (s *Store) GetRegion(ctx context.Context) string {
	val, err := s.Client.Get(ctx, keyRegion).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[store] read region preference: %v", err)
		}
		return DefaultRegion
	}
	if val == "" {
		return DefaultRegion
	}
	return val
}

// SetRegion stores the current region preference.
func (s *Store) SetRegion(ctx context.Context, region string) error {
	return s.Client.Set(ctx, keyRegion, region, 0).Err()
}

// GetQueue returns the current queue preference.
func (s *Store) GetQueue(ctx context.Context) string {
	val, err := s.Client.Get(ctx, keyQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[store] read queue preference: %v", err)
		}
		return DefaultQueue
	}
	if val == "" {
		return DefaultQueue
	}
	return val
}

// SetQueue stores the current queue preference.
func (s *Store) SetQueue(ctx context.Context, queue string) error {
	return s.Client.Set(ctx, keyQueue, queue, 0).Err()
}
