// Package monitor runs the subscription polling loop: it re-fetches
// schedules for every tracked region:queue pair, derives status, and fires
// alerts through the ledger's dedup bookkeeping.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"blackout-monitor/internal/ledger"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/schedule"
)

// Default cadence and alert threshold.
const (
	DefaultCheckInterval  = 60 * time.Second
	DefaultPollInterval   = 10 * time.Minute
	DefaultWarningMinutes = 15
)

// Subscription is one tracked region:queue pair.
type Subscription struct {
	Region string
	Queue  string
}

// Key is the composite subscription key.
func (s Subscription) Key() string {
	return fmt.Sprintf("%s:%s", s.Region, s.Queue)
}

// Fetcher fetches a fresh schedule snapshot. *region.Client satisfies it.
type Fetcher interface {
	FetchSchedule(ctx context.Context, regionKey, queue string) (schedule.Snapshot, error)
}

// SubscriptionSource lists the pairs to poll.
type SubscriptionSource interface {
	GetTrackedPairs(ctx context.Context) ([]Subscription, error)
}

// SnapshotStore persists fetched snapshots. *store.Store satisfies it.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, region, queue string) (schedule.Snapshot, error)
	SetSnapshot(ctx context.Context, region, queue string, snap schedule.Snapshot) error
}

// Alerter receives the fire-and-forget alert callbacks.
type Alerter interface {
	ScheduleChanged(regionName, queue string)
	UpcomingShutdown(minutes int, regionName, queue string)
	UpcomingRestoration(minutes int, regionName, queue string)
	NewScheduleDates(dates []string, regionName, queue string)
}

// Service is the poll orchestrator. All state mutation happens on the
// single run goroutine, so the two tickers never overlap.
type Service struct {
	fetcher Fetcher
	subs    SubscriptionSource
	store   SnapshotStore
	ledger  *ledger.Ledger
	alerter Alerter

	checkInterval  time.Duration
	pollInterval   time.Duration
	warningMinutes int

	// probe, when set, classifies fetch failures by host reachability.
	probe func(host string) bool

	now func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	cache  map[string]schedule.Snapshot
}

func NewService(fetcher Fetcher, subs SubscriptionSource, store SnapshotStore, led *ledger.Ledger, alerter Alerter) *Service {
	return &Service{
		fetcher:        fetcher,
		subs:           subs,
		store:          store,
		ledger:         led,
		alerter:        alerter,
		checkInterval:  DefaultCheckInterval,
		pollInterval:   DefaultPollInterval,
		warningMinutes: DefaultWarningMinutes,
		now:            time.Now,
		cache:          make(map[string]schedule.Snapshot),
	}
}

// SetIntervals overrides the event-check and re-fetch cadence.
func (s *Service) SetIntervals(check, poll time.Duration) {
	s.checkInterval = check
	s.pollInterval = poll
}

// SetWarningMinutes overrides the upcoming-alert threshold.
func (s *Service) SetWarningMinutes(minutes int) {
	s.warningMinutes = minutes
}

// SetProbe installs a reachability probe used to classify fetch failures.
func (s *Service) SetProbe(probe func(host string) bool) {
	s.probe = probe
}

// SetClock overrides the time source (tests).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// StartMonitoring fetches and checks all subscriptions immediately, then
// runs the periodic upcoming-event check and schedule re-fetch until
// StopMonitoring. Calling it while already running is a no-op.
func (s *Service) StartMonitoring() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, done)
}

// StopMonitoring cancels the periodic tasks and waits for the in-flight
// cycle to finish, so no callback mutates state after it returns. Safe to
// call when not started.
func (s *Service) StopMonitoring() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RefreshSubscriptions restarts monitoring with a cleared snapshot cache.
// Called when the subscription set changes.
func (s *Service) RefreshSubscriptions() {
	s.StopMonitoring()
	s.mu.Lock()
	s.cache = make(map[string]schedule.Snapshot)
	s.mu.Unlock()
	s.StartMonitoring()
}

func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.fetchAndCheckAll(ctx)

	checkTicker := time.NewTicker(s.checkInterval)
	defer checkTicker.Stop()
	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[monitor] stopped")
			return
		case <-checkTicker.C:
			s.checkAllUpcoming(ctx)
		case <-pollTicker.C:
			s.pollAll(ctx)
		}
	}
}

// fetchAndCheckAll is the initial cycle: fetch every subscription
// concurrently (failures isolated per pair), then check upcoming events.
// It never fires schedule-changed alerts and never touches the persisted
// baseline: only pollOne writes it, so a change that happened while the
// worker was down is still detected on the first poll.
func (s *Service) fetchAndCheckAll(ctx context.Context) {
	subs, err := s.subs.GetTrackedPairs(ctx)
	if err != nil {
		log.Printf("[monitor] failed to list subscriptions: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()
			snap, err := s.fetch(ctx, sub)
			if err != nil {
				log.Printf("[monitor] initial fetch %s failed: %v", sub.Key(), err)
				return
			}
			s.setCached(sub, snap)
		}(sub)
	}
	wg.Wait()

	s.checkAllUpcoming(ctx)
}

// pollAll is the 10-minute cycle: re-fetch every subscription and fire
// new-dates and schedule-changed alerts. One pair's failure never blocks
// the others; the last good cached snapshot stays in place.
func (s *Service) pollAll(ctx context.Context) {
	subs, err := s.subs.GetTrackedPairs(ctx)
	if err != nil {
		log.Printf("[monitor] failed to list subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if err := s.pollOne(ctx, sub); err != nil {
			log.Printf("[monitor] poll %s failed: %v", sub.Key(), err)
		}
	}
}

func (s *Service) pollOne(ctx context.Context, sub Subscription) error {
	snap, err := s.fetch(ctx, sub)
	if err != nil {
		return err
	}

	regionName := region.Name(sub.Region)

	newDates, err := s.ledger.NewDates(ctx, sub.Region, sub.Queue, snap)
	if err != nil {
		log.Printf("[monitor] new-dates check %s: %v", sub.Key(), err)
	} else if len(newDates) > 0 {
		s.alerter.NewScheduleDates(newDates, regionName, sub.Queue)
	}

	changed, err := s.ledger.HasChanged(ctx, sub.Region, sub.Queue, snap)
	if err != nil {
		log.Printf("[monitor] change check %s: %v", sub.Key(), err)
	} else if changed {
		s.alerter.ScheduleChanged(regionName, sub.Queue)
	}

	if err := s.store.SetSnapshot(ctx, sub.Region, sub.Queue, snap); err != nil {
		log.Printf("[monitor] persist snapshot %s: %v", sub.Key(), err)
	}
	s.setCached(sub, snap)
	return nil
}

// checkAllUpcoming is the 60-second cycle: evaluate cached snapshots only,
// no network calls, and fire at most one alert per transition per day.
func (s *Service) checkAllUpcoming(ctx context.Context) {
	subs, err := s.subs.GetTrackedPairs(ctx)
	if err != nil {
		log.Printf("[monitor] failed to list subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		snap := s.cached(sub)
		if snap == nil {
			continue
		}
		s.checkUpcoming(ctx, sub, snap)
	}
}

func (s *Service) checkUpcoming(ctx context.Context, sub Subscription, snap schedule.Snapshot) {
	now := s.now()
	st := schedule.Resolve(snap, sub.Queue, now)
	countdown := schedule.TimeUntilChange(st, now)
	if countdown == nil || countdown.TotalMinutes > s.warningMinutes {
		return
	}

	regionName := region.Name(sub.Region)

	switch {
	case st.IsOn && st.NextPeriod != nil:
		key := ledger.ShutdownEventKey(sub.Region, sub.Queue, st.NextPeriod.From)
		if s.fireOnce(ctx, key, now) {
			s.alerter.UpcomingShutdown(countdown.TotalMinutes, regionName, sub.Queue)
		}
	case !st.IsOn && st.CurrentPeriod != nil:
		key := ledger.RestorationEventKey(sub.Region, sub.Queue, st.CurrentPeriod.To)
		if s.fireOnce(ctx, key, now) {
			s.alerter.UpcomingRestoration(countdown.TotalMinutes, regionName, sub.Queue)
		}
	}
}

// fireOnce consults and updates the dedup ledger: true means the caller
// should fire the alert now.
func (s *Service) fireOnce(ctx context.Context, eventKey string, now time.Time) bool {
	notified, err := s.ledger.IsNotified(ctx, eventKey, now)
	if err != nil {
		log.Printf("[monitor] ledger read %s: %v", eventKey, err)
		return false
	}
	if notified {
		return false
	}
	if err := s.ledger.MarkNotified(ctx, eventKey, now); err != nil {
		log.Printf("[monitor] ledger write %s: %v", eventKey, err)
	}
	return true
}

// fetch fetches one subscription's schedule, classifying failures by host
// reachability when a probe is installed.
func (s *Service) fetch(ctx context.Context, sub Subscription) (schedule.Snapshot, error) {
	snap, err := s.fetcher.FetchSchedule(ctx, sub.Region, sub.Queue)
	if err != nil {
		if s.probe != nil {
			if host := region.EndpointHost(sub.Region); host != "" {
				if s.probe(host) {
					log.Printf("[monitor] %s host %s reachable, upstream service error", sub.Key(), host)
				} else {
					log.Printf("[monitor] %s host %s unreachable, network issue", sub.Key(), host)
				}
			}
		}
		return nil, err
	}
	return snap, nil
}

func (s *Service) cached(sub Subscription) schedule.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[sub.Key()]
}

func (s *Service) setCached(sub Subscription, snap schedule.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[sub.Key()] = snap
}
