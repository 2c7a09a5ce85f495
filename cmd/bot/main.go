package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blackout-monitor/internal/bot"
	"blackout-monitor/internal/config"
	"blackout-monitor/internal/database"
	"blackout-monitor/internal/mq"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is required. Get one from @BotFather on Telegram.")
	}

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
	consumer, err := mq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("rabbitmq consumer: %v", err)
	}
	defer consumer.Close()
	log.Println("rabbitmq connected")

	// --- Telegram Bot ---
	tgBot, err := bot.New(cfg.BotToken, db, st, region.NewClient(), loc)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	go tgBot.Start()
	defer tgBot.Stop()
	log.Println("telegram bot started")

	// --- Start RabbitMQ listener ---
	l := newListener(tgBot.TeleBot(), db, consumer)
	go l.start(ctx)
	log.Println("rabbitmq listener started")

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down bot service...")
	cancel()
}
