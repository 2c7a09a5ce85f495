package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackout-monitor/internal/ledger"
	"blackout-monitor/internal/schedule"
)

var testNow = time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)

// testStorage backs both the snapshot store and the ledger in memory.
type testStorage struct {
	mu        sync.Mutex
	snapshots map[string]schedule.Snapshot
	seenDates map[string][]string
	events    map[string]string
}

func newTestStorage() *testStorage {
	return &testStorage{
		snapshots: map[string]schedule.Snapshot{},
		seenDates: map[string][]string{},
		events:    map[string]string{},
	}
}

func (t *testStorage) GetSnapshot(_ context.Context, region, queue string) (schedule.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshots[region+":"+queue], nil
}

func (t *testStorage) SetSnapshot(_ context.Context, region, queue string, snap schedule.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots[region+":"+queue] = snap
	return nil
}

func (t *testStorage) GetSeenDates(_ context.Context, region, queue string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seenDates[region+":"+queue], nil
}

func (t *testStorage) SetSeenDates(_ context.Context, region, queue string, dates []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seenDates[region+":"+queue] = dates
	return nil
}

func (t *testStorage) GetNotifiedEvents(_ context.Context) (map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.events))
	for k, v := range t.events {
		out[k] = v
	}
	return out, nil
}

func (t *testStorage) SetNotifiedEvents(_ context.Context, events map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = events
	return nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	snaps map[string]schedule.Snapshot
	errs  map[string]error
	calls int
}

func (f *fakeFetcher) FetchSchedule(_ context.Context, region, queue string) (schedule.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := region + ":" + queue
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.snaps[key], nil
}

type fakeSubs struct {
	pairs []Subscription
}

func (f *fakeSubs) GetTrackedPairs(context.Context) ([]Subscription, error) {
	return f.pairs, nil
}

type alertCall struct {
	kind    string
	minutes int
	region  string
	queue   string
	dates   []string
}

type fakeAlerter struct {
	mu    sync.Mutex
	calls []alertCall
}

func (f *fakeAlerter) ScheduleChanged(regionName, queue string) {
	f.record(alertCall{kind: "changed", region: regionName, queue: queue})
}

func (f *fakeAlerter) UpcomingShutdown(minutes int, regionName, queue string) {
	f.record(alertCall{kind: "shutdown", minutes: minutes, region: regionName, queue: queue})
}

func (f *fakeAlerter) UpcomingRestoration(minutes int, regionName, queue string) {
	f.record(alertCall{kind: "restoration", minutes: minutes, region: regionName, queue: queue})
}

func (f *fakeAlerter) NewScheduleDates(dates []string, regionName, queue string) {
	f.record(alertCall{kind: "new_dates", dates: dates, region: regionName, queue: queue})
}

func (f *fakeAlerter) record(c alertCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAlerter) byKind(kind string) []alertCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []alertCall
	for _, c := range f.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func newTestService(fetcher *fakeFetcher, subs []Subscription, storage *testStorage, alerter *fakeAlerter) *Service {
	svc := NewService(fetcher, &fakeSubs{pairs: subs}, storage, ledger.New(storage), alerter)
	svc.SetClock(func() time.Time { return testNow })
	return svc
}

func snapFor(date string, queue string, windows ...schedule.Window) schedule.Snapshot {
	return schedule.Snapshot{{
		EventDate: date,
		Queues:    map[string][]schedule.Window{queue: windows},
	}}
}

func TestCheckUpcoming_ShutdownFiresOnce(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	// Shutdown at 12:10, now 12:00 → within the 15-minute threshold.
	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "12:10", To: "14:00"})

	storage := newTestStorage()
	alerter := &fakeAlerter{}
	svc := newTestService(&fakeFetcher{}, []Subscription{sub}, storage, alerter)
	svc.setCached(sub, snap)

	ctx := context.Background()
	svc.checkAllUpcoming(ctx)
	svc.checkAllUpcoming(ctx)

	calls := alerter.byKind("shutdown")
	require.Len(t, calls, 1, "same event must alert once per day")
	assert.Equal(t, 10, calls[0].minutes)
	assert.Equal(t, "4.1", calls[0].queue)
}

func TestCheckUpcoming_RestorationFiresOnce(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	// Outage ends 12:05, now 12:00.
	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "10:00", To: "12:05"})

	storage := newTestStorage()
	alerter := &fakeAlerter{}
	svc := newTestService(&fakeFetcher{}, []Subscription{sub}, storage, alerter)
	svc.setCached(sub, snap)

	ctx := context.Background()
	svc.checkAllUpcoming(ctx)
	svc.checkAllUpcoming(ctx)

	calls := alerter.byKind("restoration")
	require.Len(t, calls, 1)
	assert.Equal(t, 5, calls[0].minutes)
}

func TestCheckUpcoming_OutsideThresholdIsSilent(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "14:00", To: "16:00"})

	alerter := &fakeAlerter{}
	svc := newTestService(&fakeFetcher{}, []Subscription{sub}, newTestStorage(), alerter)
	svc.setCached(sub, snap)

	svc.checkAllUpcoming(context.Background())
	assert.Empty(t, alerter.calls)
}

func TestCheckUpcoming_SkipsUncachedSubscriptions(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	alerter := &fakeAlerter{}
	svc := newTestService(&fakeFetcher{}, []Subscription{sub}, newTestStorage(), alerter)

	svc.checkAllUpcoming(context.Background())
	assert.Empty(t, alerter.calls, "no cached snapshot means no network call and no alert")
}

func TestPollOne_DetectsNewDatesAndChanges(t *testing.T) {
	ctx := context.Background()
	sub := Subscription{Region: "IF", Queue: "4.1"}

	old := snapFor("10.11.2025", "4.1", schedule.Window{From: "10:00", To: "14:00"})
	storage := newTestStorage()
	require.NoError(t, storage.SetSnapshot(ctx, "IF", "4.1", old))
	require.NoError(t, storage.SetSeenDates(ctx, "IF", "4.1", []string{"10.11.2025"}))

	updated := schedule.Snapshot{
		{EventDate: "10.11.2025", Queues: map[string][]schedule.Window{
			"4.1": {{From: "10:00", To: "15:00"}},
		}},
		{EventDate: "11.11.2025", Queues: map[string][]schedule.Window{
			"4.1": {{From: "06:00", To: "09:00"}},
		}},
	}
	fetcher := &fakeFetcher{snaps: map[string]schedule.Snapshot{"IF:4.1": updated}}
	alerter := &fakeAlerter{}
	svc := newTestService(fetcher, []Subscription{sub}, storage, alerter)

	require.NoError(t, svc.pollOne(ctx, sub))

	newDates := alerter.byKind("new_dates")
	require.Len(t, newDates, 1)
	assert.Equal(t, []string{"11.11.2025"}, newDates[0].dates)

	require.Len(t, alerter.byKind("changed"), 1)

	persisted, err := storage.GetSnapshot(ctx, "IF", "4.1")
	require.NoError(t, err)
	assert.Equal(t, updated, persisted)

	// A second identical poll is fully silent.
	require.NoError(t, svc.pollOne(ctx, sub))
	assert.Len(t, alerter.byKind("new_dates"), 1)
	assert.Len(t, alerter.byKind("changed"), 1)
}

func TestPollOne_FirstPollNeverFiresChanged(t *testing.T) {
	ctx := context.Background()
	sub := Subscription{Region: "IF", Queue: "4.1"}

	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "10:00", To: "14:00"})
	fetcher := &fakeFetcher{snaps: map[string]schedule.Snapshot{"IF:4.1": snap}}
	alerter := &fakeAlerter{}
	svc := newTestService(fetcher, []Subscription{sub}, newTestStorage(), alerter)

	require.NoError(t, svc.pollOne(ctx, sub))
	assert.Empty(t, alerter.byKind("changed"), "nothing to diff against on first poll")
	assert.Len(t, alerter.byKind("new_dates"), 1, "all dates are new on first poll")
}

func TestPollAll_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	subA := Subscription{Region: "IF", Queue: "4.1"}
	subB := Subscription{Region: "IF", Queue: "4.2"}

	snapB := snapFor("10.11.2025", "4.2", schedule.Window{From: "10:00", To: "14:00"})
	fetcher := &fakeFetcher{
		snaps: map[string]schedule.Snapshot{"IF:4.2": snapB},
		errs:  map[string]error{"IF:4.1": errors.New("connection refused")},
	}
	storage := newTestStorage()
	svc := newTestService(fetcher, []Subscription{subA, subB}, storage, &fakeAlerter{})

	svc.pollAll(ctx)

	persisted, err := storage.GetSnapshot(ctx, "IF", "4.2")
	require.NoError(t, err)
	assert.Equal(t, snapB, persisted, "one pair's failure must not block the others")
}

func TestStartStopMonitoring(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "18:00", To: "20:00"})
	fetcher := &fakeFetcher{snaps: map[string]schedule.Snapshot{"IF:4.1": snap}}
	storage := newTestStorage()
	svc := newTestService(fetcher, []Subscription{sub}, storage, &fakeAlerter{})

	// Stop before start is a no-op.
	svc.StopMonitoring()

	svc.StartMonitoring()
	svc.StartMonitoring() // second start is a no-op

	assert.Eventually(t, func() bool {
		return svc.cached(sub) != nil
	}, time.Second, 10*time.Millisecond, "initial fetch fills the in-memory cache")

	svc.StopMonitoring()
	svc.StopMonitoring() // idempotent
}

func TestFetchAndCheckAll_KeepsBaselineForRestartDiff(t *testing.T) {
	ctx := context.Background()
	sub := Subscription{Region: "IF", Queue: "4.1"}

	// Baseline persisted by a previous run; the schedule changed while the
	// worker was down.
	before := snapFor("10.11.2025", "4.1", schedule.Window{From: "10:00", To: "14:00"})
	after := snapFor("10.11.2025", "4.1", schedule.Window{From: "10:00", To: "16:00"})

	storage := newTestStorage()
	require.NoError(t, storage.SetSnapshot(ctx, "IF", "4.1", before))
	require.NoError(t, storage.SetSeenDates(ctx, "IF", "4.1", []string{"10.11.2025"}))

	fetcher := &fakeFetcher{snaps: map[string]schedule.Snapshot{"IF:4.1": after}}
	alerter := &fakeAlerter{}
	svc := newTestService(fetcher, []Subscription{sub}, storage, alerter)

	svc.fetchAndCheckAll(ctx)

	assert.Empty(t, alerter.byKind("changed"), "initial load stays silent")
	persisted, err := storage.GetSnapshot(ctx, "IF", "4.1")
	require.NoError(t, err)
	assert.Equal(t, before, persisted, "initial load must not overwrite the baseline")

	// The first poll still sees the pre-restart baseline and fires.
	require.NoError(t, svc.pollOne(ctx, sub))
	assert.Len(t, alerter.byKind("changed"), 1)
}

func TestCheckAllUpcoming_StopsOnCancelledContext(t *testing.T) {
	sub := Subscription{Region: "IF", Queue: "4.1"}
	// Eligible alert 10 minutes out, but the context is already cancelled.
	snap := snapFor("10.11.2025", "4.1", schedule.Window{From: "12:10", To: "14:00"})

	alerter := &fakeAlerter{}
	svc := newTestService(&fakeFetcher{}, []Subscription{sub}, newTestStorage(), alerter)
	svc.setCached(sub, snap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.checkAllUpcoming(ctx)

	assert.Empty(t, alerter.calls)
}
