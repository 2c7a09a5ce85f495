package mq

import (
	"context"
	"log"
	"time"

	"blackout-monitor/internal/region"
)

// AlertNotifier implements monitor.Alerter by publishing to RabbitMQ.
// Every callback is fire-and-forget: publish failures are logged, never
// surfaced back into the polling loop.
type AlertNotifier struct {
	pub *Publisher
}

// NewAlertNotifier creates a notifier that publishes alerts to RabbitMQ.
func NewAlertNotifier(pub *Publisher) *AlertNotifier {
	return &AlertNotifier{pub: pub}
}

func (n *AlertNotifier) ScheduleChanged(regionName, queue string) {
	n.publish(RoutingScheduleChanged, ScheduleChangedMsg{
		Region:     region.KeyFromName(regionName),
		RegionName: regionName,
		Queue:      queue,
		When:       time.Now(),
	})
}

func (n *AlertNotifier) UpcomingShutdown(minutes int, regionName, queue string) {
	n.publish(RoutingShutdown, UpcomingShutdownMsg{
		Region:     region.KeyFromName(regionName),
		RegionName: regionName,
		Queue:      queue,
		Minutes:    minutes,
		When:       time.Now(),
	})
}

func (n *AlertNotifier) UpcomingRestoration(minutes int, regionName, queue string) {
	n.publish(RoutingRestoration, UpcomingRestorationMsg{
		Region:     region.KeyFromName(regionName),
		RegionName: regionName,
		Queue:      queue,
		Minutes:    minutes,
		When:       time.Now(),
	})
}

func (n *AlertNotifier) NewScheduleDates(dates []string, regionName, queue string) {
	n.publish(RoutingNewDates, NewDatesMsg{
		Region:     region.KeyFromName(regionName),
		RegionName: regionName,
		Queue:      queue,
		Dates:      dates,
		When:       time.Now(),
	})
}

func (n *AlertNotifier) publish(routingKey string, msg any) {
	if err := n.pub.Publish(context.Background(), routingKey, msg); err != nil {
		log.Printf("[mq] failed to publish %s: %v", routingKey, err)
	}
}
