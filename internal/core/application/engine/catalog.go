package engine

import (
	"context"
	"sync"

	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// LocationCatalog is the shared in-memory snapshot of fulfillment locations.
// The commerce backend owns the list; the catalog refreshes it periodically
// and hands out copies so event handlers never block on the backend for it.
type LocationCatalog struct {
	commerce ports.Commerce

	mu        sync.RWMutex
	locations []pizzeria.FulfillmentLocation
}

// NewLocationCatalog creates an empty catalog. Call Refresh before first use.
func NewLocationCatalog(commerce ports.Commerce) (*LocationCatalog, error) {
	if commerce == nil {
		return nil, errs.NewValueIsRequiredError("commerce")
	}

	return &LocationCatalog{commerce: commerce}, nil
}

// Refresh replaces the snapshot with the current backend list.
// On failure the previous snapshot stays in place.
func (c *LocationCatalog) Refresh(ctx context.Context) error {
	locations, err := c.commerce.ListFulfillmentLocations(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.locations = locations
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current location list.
func (c *LocationCatalog) Snapshot() []pizzeria.FulfillmentLocation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make([]pizzeria.FulfillmentLocation, len(c.locations))
	copy(snapshot, c.locations)
	return snapshot
}
