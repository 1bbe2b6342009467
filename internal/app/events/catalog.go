package events

import (
	"errors"

	"github.com/rsvp-demo/project/internal/contracts"
)

// MockEventID is the only event recognized by the lookup and RSVP endpoints.
const MockEventID = "event001"

var ErrEventNotFound = errors.New("event not found")

type Catalog struct {
	byID  map[string]contracts.EventData
	order []string
}

func NewCatalog(items ...contracts.EventData) *Catalog {
	c := &Catalog{byID: make(map[string]contracts.EventData, len(items))}
	for _, item := range items {
		if _, exists := c.byID[item.ID]; !exists {
			c.order = append(c.order, item.ID)
		}
		c.byID[item.ID] = item
	}
	return c
}

// DefaultCatalog holds the single mock event used by the demo.
func DefaultCatalog() *Catalog {
	return NewCatalog(contracts.EventData{
		ID:      MockEventID,
		Venue:   "Elevation Church Ballantyne",
		Address: "11701 Elevation Pt Dr",
		City:    "Charlotte",
		State:   "NC",
		Zip:     "28277",
		Date:    "2025-11-02T14:00:00.000Z",
	})
}

func (c *Catalog) Lookup(id string) (contracts.EventData, error) {
	ev, ok := c.byID[id]
	if !ok {
		return contracts.EventData{}, ErrEventNotFound
	}
	return ev, nil
}

func (c *Catalog) Known(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) List() []contracts.EventData {
	out := make([]contracts.EventData, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
