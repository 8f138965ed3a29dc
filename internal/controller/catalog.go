package controller

import (
	"context"
	"sync"
	"time"

	"clubly/internal/domain"
	"clubly/internal/models"

	"github.com/rs/zerolog"
)

// Catalog is the public event list shared by all users.
type Catalog struct {
	api    domain.CatalogAPI
	logger zerolog.Logger

	mu        sync.RWMutex
	events    []models.Event
	updatedAt time.Time
}

func NewCatalog(api domain.CatalogAPI, logger *zerolog.Logger) *Catalog {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "catalog").Logger()
	}
	return &Catalog{api: api, logger: l}
}

// Load fills the catalog, accepting a cached backend answer.
func (c *Catalog) Load(ctx context.Context) error {
	return c.apply(c.api.ListEvents(ctx))
}

// Refresh refetches the catalog from the backend. On failure the previous
// list stays in place.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.apply(c.api.RefreshEvents(ctx))
}

func (c *Catalog) apply(list []models.Event, err error) error {
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch events")
		return err
	}
	c.mu.Lock()
	c.events = list
	c.updatedAt = time.Now()
	c.mu.Unlock()
	c.logger.Debug().Int("count", len(list)).Msg("catalog updated")
	return nil
}

// Events returns a snapshot of the last fetched list.
func (c *Catalog) Events() []models.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Event(nil), c.events...)
}

func (c *Catalog) Event(id string) (models.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// Lookup returns the event from the list, asking the backend when it is not there.
func (c *Catalog) Lookup(ctx context.Context, id string) (models.Event, error) {
	if e, ok := c.Event(id); ok {
		return e, nil
	}
	e, err := c.api.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	return *e, nil
}

func (c *Catalog) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// OpenEvent shows the details of an event.
func (a *App) OpenEvent(ctx context.Context, id string) (models.Event, error) {
	e, err := a.catalog.Lookup(ctx, id)
	if err != nil {
		return models.Event{}, fail(err, "Evento non trovato")
	}
	if err := a.OpenOverlay(EventDetailsOverlay(e)); err != nil {
		return e, err
	}
	return e, nil
}
