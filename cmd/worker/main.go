package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blackout-monitor/internal/config"
	"blackout-monitor/internal/database"
	"blackout-monitor/internal/ledger"
	"blackout-monitor/internal/monitor"
	"blackout-monitor/internal/mq"
	"blackout-monitor/internal/ping"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/store"
)

// trackedPairs adapts the subscriptions table to the monitor's view of
// the distinct region:queue pairs it has to poll.
type trackedPairs struct {
	db *database.DB
}

func (t trackedPairs) GetTrackedPairs(ctx context.Context) ([]monitor.Subscription, error) {
	subs, err := t.db.GetTrackedPairs(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]monitor.Subscription, 0, len(subs))
	for _, sub := range subs {
		pairs = append(pairs, monitor.Subscription{Region: sub.Region, Queue: sub.Queue})
	}
	return pairs, nil
}

func main() {
	// Load .env if present.
	_ = godotenv.Load()

	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database ---
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database connected and migrated")

	// --- Redis ---
	st, err := store.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer st.Close()
	log.Println("redis connected")

	// --- RabbitMQ ---
	publisher, err := mq.NewPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("rabbitmq publisher: %v", err)
	}
	defer publisher.Close()
	log.Println("rabbitmq connected")

	// --- Monitor Service ---
	svc := monitor.NewService(
		region.NewClient(),
		trackedPairs{db: db},
		st,
		ledger.New(st),
		mq.NewAlertNotifier(publisher),
	)
	svc.SetIntervals(
		time.Duration(cfg.EventCheckInterval)*time.Second,
		time.Duration(cfg.SchedulePollInterval)*time.Second,
	)
	svc.SetWarningMinutes(cfg.WarningMinutes)
	svc.SetProbe(ping.PingHost)
	svc.SetClock(func() time.Time { return time.Now().In(loc) })

	svc.StartMonitoring()
	defer svc.StopMonitoring()
	log.Println("monitoring started")

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down worker...")
	cancel()
}
