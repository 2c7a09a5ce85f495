package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"blackout-monitor/internal/database"
	"blackout-monitor/internal/region"
	"blackout-monitor/internal/schedule"
	"blackout-monitor/internal/store"
)

// Handlers holds the API dependencies.
type Handlers struct {
	DB     *database.DB
	Store  *store.Store
	Client *region.Client
	Loc    *time.Location
}

// RegisterRoutes registers API routes on the given Fiber router.
func (h *Handlers) RegisterRoutes(api fiber.Router) {
	api.Get("/regions", h.GetRegions)
	api.Get("/schedule/:region/:queue", h.GetSchedule)
	api.Get("/status/:region/:queue", h.GetStatus)
	api.Get("/preferences", h.GetPreferences)
	api.Put("/preferences", h.SetPreferences)
	api.Get("/subscriptions", h.GetSubscriptions)
	api.Post("/subscriptions", h.AddSubscription)
	api.Delete("/subscriptions", h.RemoveSubscription)
}

type regionInfo struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Queues []string `json:"queues"`
}

// GetRegions returns the registered regions and their queues.
func (h *Handlers) GetRegions(c *fiber.Ctx) error {
	all := region.All()
	result := make([]regionInfo, 0, len(all))
	for _, r := range all {
		result = append(result, regionInfo{Key: r.Key, Name: r.Name, Queues: r.Queues})
	}
	return c.JSON(result)
}

// fetchOrCached fetches the schedule, falling back to the cached snapshot
// on transport failure. The error is returned only when neither works.
func (h *Handlers) fetchOrCached(ctx context.Context, regionKey, queue string) (schedule.Snapshot, error) {
	snap, err := h.Client.FetchSchedule(ctx, regionKey, queue)
	if err == nil {
		if persistErr := h.Store.SetSnapshot(ctx, regionKey, queue, snap); persistErr != nil {
			log.Printf("[api] persist snapshot %s:%s: %v", regionKey, queue, persistErr)
		}
		return snap, nil
	}

	if errors.Is(err, region.ErrUnknownRegion) {
		return nil, err
	}
	log.Printf("[api] fetch %s:%s failed, trying cache: %v", regionKey, queue, err)
	cached, cacheErr := h.Store.GetSnapshot(ctx, regionKey, queue)
	if cacheErr != nil || cached == nil {
		return nil, err
	}
	return cached, nil
}

// GetSchedule returns today's formatted schedule for a region:queue pair.
func (h *Handlers) GetSchedule(c *fiber.Ctx) error {
	regionKey := c.Params("region")
	queue := c.Params("queue")

	ctx := context.Background()
	snap, err := h.fetchOrCached(ctx, regionKey, queue)
	if err != nil {
		if errors.Is(err, region.ErrUnknownRegion) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("region %q not found", regionKey),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "schedule fetch failed and no cached data available",
		})
	}

	now := time.Now().In(h.Loc)
	view := schedule.FormatSchedule(snap, queue, now)
	if view == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("no schedule for queue %q", queue),
		})
	}

	lastUpdate, err := h.Store.GetLastUpdate(ctx, regionKey, queue)
	if err != nil {
		log.Printf("[api] last update %s:%s: %v", regionKey, queue, err)
	}

	return c.JSON(fiber.Map{
		"schedule":         view,
		"total_outage_min": int(schedule.TotalOutage(snap, queue, now).Minutes()),
		"last_update":      lastUpdate,
	})
}

// GetStatus returns the derived on/off status and countdown for a pair.
func (h *Handlers) GetStatus(c *fiber.Ctx) error {
	regionKey := c.Params("region")
	queue := c.Params("queue")

	ctx := context.Background()
	snap, err := h.fetchOrCached(ctx, regionKey, queue)
	if err != nil {
		if errors.Is(err, region.ErrUnknownRegion) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("region %q not found", regionKey),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "schedule fetch failed and no cached data available",
		})
	}

	now := time.Now().In(h.Loc)
	st := schedule.Resolve(snap, queue, now)

	return c.JSON(fiber.Map{
		"region":    regionKey,
		"queue":     queue,
		"status":    st,
		"countdown": schedule.TimeUntilChange(st, now),
	})
}

// GetPreferences returns the current region/queue preference.
func (h *Handlers) GetPreferences(c *fiber.Ctx) error {
	ctx := context.Background()
	return c.JSON(fiber.Map{
		"region": h.Store.GetRegion(ctx),
		"queue":  h.Store.GetQueue(ctx),
	})
}

type preferencesRequest struct {
	Region string `json:"region"`
	Queue  string `json:"queue"`
}

// SetPreferences stores the current region/queue preference.
func (h *Handlers) SetPreferences(c *fiber.Ctx) error {
	var req preferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	r, err := region.Get(req.Region)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("region %q not found", req.Region),
		})
	}
	if !r.HasQueue(req.Queue) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("queue %q not in region %q", req.Queue, req.Region),
		})
	}

	ctx := context.Background()
	if err := h.Store.SetRegion(ctx, req.Region); err != nil {
		log.Printf("[api] set region: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if err := h.Store.SetQueue(ctx, req.Queue); err != nil {
		log.Printf("[api] set queue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type subscriptionRequest struct {
	ChatID int64  `json:"chat_id"`
	Region string `json:"region"`
	Queue  string `json:"queue"`
}

// GetSubscriptions lists a chat's subscriptions.
func (h *Handlers) GetSubscriptions(c *fiber.Ctx) error {
	chatID := c.QueryInt("chat_id")
	if chatID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chat_id query parameter required"})
	}

	subs, err := h.DB.GetSubscriptionsByChat(context.Background(), int64(chatID))
	if err != nil {
		log.Printf("[api] list subscriptions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if subs == nil {
		subs = []database.Subscription{}
	}
	return c.JSON(subs)
}

// AddSubscription subscribes a chat to a region:queue pair.
func (h *Handlers) AddSubscription(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	r, err := region.Get(req.Region)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("region %q not found", req.Region),
		})
	}
	if !r.HasQueue(req.Queue) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("queue %q not in region %q", req.Queue, req.Region),
		})
	}

	added, err := h.DB.AddSubscription(context.Background(), req.ChatID, req.Region, req.Queue)
	if err != nil {
		log.Printf("[api] add subscription: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if !added {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// RemoveSubscription unsubscribes a chat from a region:queue pair.
func (h *Handlers) RemoveSubscription(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	removed, err := h.DB.RemoveSubscription(context.Background(), req.ChatID, req.Region, req.Queue)
	if err != nil {
		log.Printf("[api] remove subscription: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if !removed {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
