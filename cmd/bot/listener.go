package main

import (
	"context"
	"encoding/json"
	"log"

	tele "gopkg.in/telebot.v3"

	"blackout-monitor/internal/bot"
	"blackout-monitor/internal/database"
	"blackout-monitor/internal/mq"
)

// listener consumes alert messages from RabbitMQ and fans them out to
// subscribed Telegram chats.
type listener struct {
	consumer *mq.Consumer
	sender   *bot.AlertSender
}

func newListener(b *tele.Bot, db *database.DB, consumer *mq.Consumer) *listener {
	return &listener{
		consumer: consumer,
		sender:   bot.NewAlertSender(b, db),
	}
}

func (l *listener) start(ctx context.Context) {
	alertCh, err := l.consumer.Consume(mq.QueueAlerts)
	if err != nil {
		log.Fatalf("[listener] failed to consume %s: %v", mq.QueueAlerts, err)
	}

	log.Printf("[listener] consuming from %s", mq.QueueAlerts)

	for {
		select {
		case <-ctx.Done():
			log.Println("[listener] stopped")
			return
		case d, ok := <-alertCh:
			if !ok {
				return
			}
			l.handleAlert(d.RoutingKey, d.Body)
			d.Ack(false)
		}
	}
}

func (l *listener) handleAlert(routingKey string, payload []byte) {
	switch routingKey {
	case mq.RoutingScheduleChanged:
		var msg mq.ScheduleChangedMsg
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[listener] bad %s message: %v", routingKey, err)
			return
		}
		l.sender.SendScheduleChanged(msg)
	case mq.RoutingShutdown:
		var msg mq.UpcomingShutdownMsg
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[listener] bad %s message: %v", routingKey, err)
			return
		}
		l.sender.SendUpcomingShutdown(msg)
	case mq.RoutingRestoration:
		var msg mq.UpcomingRestorationMsg
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[listener] bad %s message: %v", routingKey, err)
			return
		}
		l.sender.SendUpcomingRestoration(msg)
	case mq.RoutingNewDates:
		var msg mq.NewDatesMsg
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[listener] bad %s message: %v", routingKey, err)
			return
		}
		l.sender.SendNewDates(msg)
	default:
		log.Printf("[listener] unknown routing key %q", routingKey)
	}
}
