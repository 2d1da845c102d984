package collector

import (
	"context"

	"boiler_collector/internal/models"

	"golang.org/x/sync/errgroup"
)

// Group runs independent collectors, one per device.
type Group struct {
	collectors []*Collector
}

func NewGroup(collectors ...*Collector) *Group {
	return &Group{collectors: collectors}
}

// Run blocks until every collector has stopped.
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, c := range g.collectors {
		eg.Go(func() error { return c.Run(ctx) })
	}
	return eg.Wait()
}

// Status lists the collectors in configuration order.
func (g *Group) Status() []models.CollectorStatus {
	out := make([]models.CollectorStatus, 0, len(g.collectors))
	for _, c := range g.collectors {
		out = append(out, c.Status())
	}
	return out
}
