package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"blackout-monitor/internal/database"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/schedule"
)

// ── Simple commands ──────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	log.Printf("[bot] /start from user %d (@%s)", c.Sender().ID, c.Sender().Username)
	return c.Send(msgStart, htmlOpts)
}

func (b *Bot) handleHelp(c tele.Context) error {
	log.Printf("[bot] /help from user %d (@%s)", c.Sender().ID, c.Sender().Username)
	return c.Send(msgHelp, htmlOpts)
}

func (b *Bot) handleRegions(c tele.Context) error {
	var bld strings.Builder
	bld.WriteString("<b>Доступні регіони:</b>\n")
	for _, r := range region.All() {
		bld.WriteString(fmt.Sprintf("\n<code>%s</code> — %s\nЧерги: %s\n",
			r.Key, r.Name, strings.Join(r.Queues, ", ")))
	}
	return c.Send(bld.String(), htmlOpts)
}

// ── Subscriptions ───────────────────────────────────────────────────

// parsePair validates "/subscribe IF 4.1"-style arguments.
func parsePair(args []string) (region.Region, string, string) {
	if len(args) != 2 {
		return region.Region{}, "", msgUsageSubscribe
	}
	regionKey := strings.ToUpper(args[0])
	queue := args[1]

	r, err := region.Get(regionKey)
	if err != nil {
		return region.Region{}, "", msgUnknownRegion
	}
	if !r.HasQueue(queue) {
		return region.Region{}, "", msgUnknownQueue
	}
	return r, queue, ""
}

func (b *Bot) handleSubscribe(c tele.Context) error {
	log.Printf("[bot] /subscribe from chat %d: %v", c.Chat().ID, c.Args())
	r, queue, userErr := parsePair(c.Args())
	if userErr != "" {
		return c.Send(userErr, htmlOpts)
	}

	added, err := b.db.AddSubscription(context.Background(), c.Chat().ID, r.Key, queue)
	if err != nil {
		log.Printf("[bot] add subscription error: %v", err)
		return c.Send(msgError)
	}
	if !added {
		return c.Send(fmt.Sprintf(msgAlreadySubscribed, r.Name, queue), htmlOpts)
	}
	return c.Send(fmt.Sprintf(msgSubscribed, r.Name, queue), htmlOpts)
}

func (b *Bot) handleUnsubscribe(c tele.Context) error {
	log.Printf("[bot] /unsubscribe from chat %d: %v", c.Chat().ID, c.Args())
	r, queue, userErr := parsePair(c.Args())
	if userErr != "" {
		return c.Send(userErr, htmlOpts)
	}

	removed, err := b.db.RemoveSubscription(context.Background(), c.Chat().ID, r.Key, queue)
	if err != nil {
		log.Printf("[bot] remove subscription error: %v", err)
		return c.Send(msgError)
	}
	if !removed {
		return c.Send(fmt.Sprintf(msgNotSubscribed, r.Name, queue), htmlOpts)
	}
	return c.Send(fmt.Sprintf(msgUnsubscribed, r.Name, queue), htmlOpts)
}

func (b *Bot) handleList(c tele.Context) error {
	subs, err := b.db.GetSubscriptionsByChat(context.Background(), c.Chat().ID)
	if err != nil {
		log.Printf("[bot] list subscriptions error: %v", err)
		return c.Send(msgError)
	}
	if len(subs) == 0 {
		return c.Send(msgNoSubscriptions, htmlOpts)
	}

	var bld strings.Builder
	bld.WriteString(msgListHeader)
	for i, s := range subs {
		bld.WriteString(fmt.Sprintf("%d. %s, черга %s\n", i+1, region.Name(s.Region), s.Queue))
	}
	return c.Send(bld.String(), htmlOpts)
}

// ── /status ─────────────────────────────────────────────────────────

func (b *Bot) handleStatus(c tele.Context) error {
	ctx := context.Background()

	var regionKey, queue string
	if args := c.Args(); len(args) == 2 {
		r, q, userErr := parsePair(args)
		if userErr != "" {
			return c.Send(userErr, htmlOpts)
		}
		regionKey, queue = r.Key, q
	} else {
		regionKey = b.store.GetRegion(ctx)
		queue = b.store.GetQueue(ctx)
	}

	// User-initiated fetch: surface errors, but fall back to the cached
	// snapshot when one exists.
	snap, err := b.client.FetchSchedule(ctx, regionKey, queue)
	if err != nil {
		log.Printf("[bot] status fetch %s:%s failed: %v", regionKey, queue, err)
		snap, _ = b.store.GetSnapshot(ctx, regionKey, queue)
		if snap == nil {
			return c.Send(msgFetchError)
		}
	} else if err := b.store.SetSnapshot(ctx, regionKey, queue, snap); err != nil {
		log.Printf("[bot] persist snapshot %s:%s: %v", regionKey, queue, err)
	}

	now := time.Now().In(b.loc)
	return c.Send(b.buildStatusMessage(snap, regionKey, queue, now), htmlOpts)
}

func (b *Bot) buildStatusMessage(snap schedule.Snapshot, regionKey, queue string, now time.Time) string {
	st := schedule.Resolve(snap, queue, now)
	countdown := schedule.TimeUntilChange(st, now)
	regionName := region.Name(regionKey)

	var bld strings.Builder
	if st.IsOn {
		bld.WriteString(fmt.Sprintf(msgStatusOn, regionName, queue))
		if st.NextPeriod != nil {
			bld.WriteString(fmt.Sprintf(msgStatusNextOff, st.NextPeriodDate, st.NextPeriod.From))
		}
		if countdown != nil {
			bld.WriteString(fmt.Sprintf(msgStatusShutdown,
				database.FormatDuration(time.Duration(countdown.TotalMinutes)*time.Minute)))
		}
	} else {
		bld.WriteString(fmt.Sprintf(msgStatusOff, regionName, queue,
			st.CurrentPeriod.From, st.CurrentPeriod.To))
		if countdown != nil {
			bld.WriteString(fmt.Sprintf(msgStatusRestore,
				database.FormatDuration(time.Duration(countdown.TotalMinutes)*time.Minute)))
		}
	}

	if total := schedule.TotalOutage(snap, queue, now); total > 0 {
		bld.WriteString(fmt.Sprintf(msgStatusTotal, database.FormatDuration(total)))
	}
	return bld.String()
}
