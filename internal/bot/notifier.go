package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tele "gopkg.in/telebot.v3"

	"blackout-monitor/internal/database"
	"blackout-monitor/internal/mq"
)

// AlertSender formats alert messages and delivers them to every chat
// subscribed to the affected region:queue pair.
type AlertSender struct {
	bot *tele.Bot
	db  *database.DB
}

func NewAlertSender(b *tele.Bot, db *database.DB) *AlertSender {
	return &AlertSender{bot: b, db: db}
}

func (s *AlertSender) SendScheduleChanged(msg mq.ScheduleChangedMsg) {
	s.broadcast(msg.Region, msg.Queue,
		fmt.Sprintf(msgAlertChanged, msg.RegionName, msg.Queue))
}

func (s *AlertSender) SendUpcomingShutdown(msg mq.UpcomingShutdownMsg) {
	s.broadcast(msg.Region, msg.Queue,
		fmt.Sprintf(msgAlertShutdown, msg.RegionName, msg.Queue, msg.Minutes))
}

func (s *AlertSender) SendUpcomingRestoration(msg mq.UpcomingRestorationMsg) {
	s.broadcast(msg.Region, msg.Queue,
		fmt.Sprintf(msgAlertRestoration, msg.RegionName, msg.Queue, msg.Minutes))
}

func (s *AlertSender) SendNewDates(msg mq.NewDatesMsg) {
	s.broadcast(msg.Region, msg.Queue,
		fmt.Sprintf(msgAlertNewDates, msg.RegionName, msg.Queue, strings.Join(msg.Dates, ", ")))
}

// broadcast fans one alert out to all subscriber chats. Send failures are
// per-chat: one blocked bot must not stop delivery to the rest.
func (s *AlertSender) broadcast(region, queue, text string) {
	chats, err := s.db.GetSubscriberChats(context.Background(), region, queue)
	if err != nil {
		log.Printf("[bot] subscriber lookup %s:%s failed: %v", region, queue, err)
		return
	}
	for _, chatID := range chats {
		chat := &tele.Chat{ID: chatID}
		if _, err := s.bot.Send(chat, text, htmlOpts); err != nil {
			log.Printf("[bot] failed to send alert to chat %d: %v", chatID, err)
		}
	}
}
