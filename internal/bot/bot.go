package bot

import (
	"time"

	tele "gopkg.in/telebot.v3"

	"blackout-monitor/internal/database"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/store"
)

// Bot wraps the Telegram bot and its command handlers.
type Bot struct {
	bot    *tele.Bot
	db     *database.DB
	store  *store.Store
	client *region.Client
	loc    *time.Location
}

var htmlOpts = &tele.SendOptions{ParseMode: tele.ModeHTML}

// New creates and configures the Telegram bot.
func New(token string, db *database.DB, st *store.Store, client *region.Client, loc *time.Location) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{bot: b, db: db, store: st, client: client, loc: loc}

	b.Handle("/start", bot.handleStart)
	b.Handle("/help", bot.handleHelp)
	b.Handle("/subscribe", bot.handleSubscribe)
	b.Handle("/unsubscribe", bot.handleUnsubscribe)
	b.Handle("/list", bot.handleList)
	b.Handle("/status", bot.handleStatus)
	b.Handle("/regions", bot.handleRegions)

	return bot, nil
}

// TeleBot exposes the underlying telebot instance for the alert listener.
func (b *Bot) TeleBot() *tele.Bot {
	return b.bot
}

// Start begins long-polling for updates. Blocks.
func (b *Bot) Start() {
	b.bot.Start()
}

// Stop stops the bot.
func (b *Bot) Stop() {
	b.bot.Stop()
}
