package region

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"blackout-monitor/internal/schedule"
)

// Client fetches published schedules from the regions' upstream services.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a schedule fetch client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchSchedule fetches and normalizes the schedule for a region and queue.
// Returns ErrUnknownRegion for unregistered region keys; any other failure
// is a transport or upstream error the caller may recover from with a
// cached snapshot.
func (c *Client) FetchSchedule(ctx context.Context, regionKey, queue string) (schedule.Snapshot, error) {
	r, err := Get(regionKey)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?queue=%s", r.Endpoint, url.QueryEscape(queue))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schedule service returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	snap, err := r.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", regionKey, err)
	}
	return snap, nil
}

// EndpointHost returns the hostname of the region's endpoint, for
// reachability probes. Empty for unknown regions.
func EndpointHost(regionKey string) string {
	r, err := Get(regionKey)
	if err != nil {
		return ""
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
