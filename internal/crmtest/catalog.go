// AngelaMos | 2026
// catalog.go

package crmtest

import (
	"context"
	"slices"

	"github.com/carterperez-dev/crm-backend/internal/reference"
)

// Catalog serves one reference table.
type Catalog struct {
	w       *World
	sources bool
}

func (w *World) Statuses() Catalog { return Catalog{w: w} }

func (w *World) Sources() Catalog { return Catalog{w: w, sources: true} }

func (c Catalog) options() []reference.Option {
	if c.sources {
		return c.w.sources
	}
	return c.w.statuses
}

func (c Catalog) List(context.Context) ([]reference.Option, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	return slices.Clone(c.options()), nil
}

func (c Catalog) Exists(_ context.Context, id int64) (bool, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()

	return slices.ContainsFunc(c.options(), func(o reference.Option) bool {
		return o.ID == id
	}), nil
}

func (c Catalog) find(id int64) (reference.Option, bool) {
	for _, o := range c.options() {
		if o.ID == id {
			return o, true
		}
	}
	return reference.Option{}, false
}
