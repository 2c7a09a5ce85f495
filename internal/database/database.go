package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Subscription is one tracked region:queue pair for a Telegram chat.
// The worker polls the distinct set of (region, queue) pairs once each,
// regardless of how many chats subscribe to them.
type Subscription struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	Region    string    `json:"region" db:"region"`
	Queue     string    `json:"queue" db:"queue"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate creates the schema if it doesn't exist.
func (db *DB) Migrate(ctx context.Context) error {
	sql := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id          BIGSERIAL PRIMARY KEY,
		chat_id     BIGINT NOT NULL,
		region      TEXT NOT NULL,
		queue       TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (chat_id, region, queue)
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_chat_id ON subscriptions(chat_id);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_pair    ON subscriptions(region, queue);
	`
	_, err := db.Pool.Exec(ctx, sql)
	return err
}

// AddSubscription inserts a subscription; duplicates are a no-op.
// Returns true when a new row was created.
func (db *DB) AddSubscription(ctx context.Context, chatID int64, region, queue string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO subscriptions (chat_id, region, queue)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, region, queue) DO NOTHING`,
		chatID, region, queue)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveSubscription deletes a subscription. Returns true when a row existed.
func (db *DB) RemoveSubscription(ctx context.Context, chatID int64, region, queue string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM subscriptions
		WHERE chat_id = $1 AND region = $2 AND queue = $3`,
		chatID, region, queue)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetSubscriptionsByChat returns a chat's subscriptions in creation order.
func (db *DB) GetSubscriptionsByChat(ctx context.Context, chatID int64) ([]Subscription, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, chat_id, region, queue, created_at
		FROM subscriptions
		WHERE chat_id = $1
		ORDER BY created_at`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// GetTrackedPairs returns the distinct (region, queue) pairs with at least
// one subscriber. This is the set the worker polls.
func (db *DB) GetTrackedPairs(ctx context.Context) ([]Subscription, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT ON (region, queue) id, chat_id, region, queue, created_at
		FROM subscriptions
		ORDER BY region, queue, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query tracked pairs: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// GetSubscriberChats returns the chat IDs subscribed to a region:queue pair.
func (db *DB) GetSubscriberChats(ctx context.Context, region, queue string) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT chat_id FROM subscriptions
		WHERE region = $1 AND queue = $2`,
		region, queue)
	if err != nil {
		return nil, fmt.Errorf("query subscriber chats: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chats = append(chats, id)
	}
	return chats, rows.Err()
}

// FormatDuration renders a duration in Ukrainian for user-facing messages.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%d д %d год %d хв", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%d год %d хв", hours, minutes)
	}
	return fmt.Sprintf("%d хв", minutes)
}

func scanSubscriptions(rows pgx.Rows) ([]Subscription, error) {
	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.ChatID, &s.Region, &s.Queue, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
