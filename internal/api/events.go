package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clubly/internal/models"
)

const catalogCacheKey = "clubly:events"

func eventCacheKey(id string) string {
	return "clubly:event:" + id
}

// ListEvents returns the public catalog, from cache when one is configured.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if c.readCache(ctx, catalogCacheKey, &events) {
		return events, nil
	}
	return c.fetchEvents(ctx)
}

// RefreshEvents bypasses the cache and stores the fresh catalog.
func (c *Client) RefreshEvents(ctx context.Context) ([]models.Event, error) {
	return c.fetchEvents(ctx)
}

func (c *Client) fetchEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/events", path: "/api/events"}, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	c.writeCache(ctx, catalogCacheKey, events)
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if c.readCache(ctx, eventCacheKey(id), &event) {
		return &event, nil
	}
	path := "/api/events/" + url.PathEscape(id)
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/events/{id}", path: path}, &event); err != nil {
		return nil, err
	}
	c.writeCache(ctx, eventCacheKey(id), event)
	return &event, nil
}

// InvalidateEvents drops cached catalog entries after a mutation.
func (c *Client) InvalidateEvents(ctx context.Context, ids ...string) {
	keys := []string{catalogCacheKey}
	for _, id := range ids {
		keys = append(keys, eventCacheKey(id))
	}
	c.dropCache(ctx, keys...)
}

func (c *Client) CreateEvent(ctx context.Context, token string, in models.EventInput) (string, error) {
	var resp models.EventCreated
	if err := c.do(ctx, request{method: http.MethodPost, route: "/api/events", path: "/api/events", token: token, body: in}, &resp); err != nil {
		return "", err
	}
	c.InvalidateEvents(ctx)
	return resp.EventID, nil
}

func (c *Client) UpdateEvent(ctx context.Context, token, id string, in models.EventInput) error {
	path := "/api/events/" + url.PathEscape(id)
	if err := c.do(ctx, request{method: http.MethodPut, route: "/api/events/{id}", path: path, token: token, body: in}, nil); err != nil {
		return err
	}
	c.InvalidateEvents(ctx, id)
	return nil
}

// UpdateEventLimited is the capo promoter edit of a restricted field subset.
func (c *Client) UpdateEventLimited(ctx context.Context, token, id string, in models.EventLimitedInput) error {
	path := fmt.Sprintf("/api/events/%s/full-update", url.PathEscape(id))
	if err := c.do(ctx, request{method: http.MethodPut, route: "/api/events/{id}/full-update", path: path, token: token, body: in}, nil); err != nil {
		return err
	}
	c.InvalidateEvents(ctx, id)
	return nil
}

func (c *Client) UpdateEventPoster(ctx context.Context, token, id, poster string) error {
	path := fmt.Sprintf("/api/events/%s/poster", url.PathEscape(id))
	body := models.EventPosterRequest{EventPoster: poster}
	if err := c.do(ctx, request{method: http.MethodPut, route: "/api/events/{id}/poster", path: path, token: token, body: body}, nil); err != nil {
		return err
	}
	c.InvalidateEvents(ctx, id)
	return nil
}

func (c *Client) DeleteEvent(ctx context.Context, token, id string) error {
	path := "/api/events/" + url.PathEscape(id)
	if err := c.do(ctx, request{method: http.MethodDelete, route: "/api/events/{id}", path: path, token: token}, nil); err != nil {
		return err
	}
	c.InvalidateEvents(ctx, id)
	return nil
}
