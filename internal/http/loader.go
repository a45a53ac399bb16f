package http

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kaslot/internal/core"
	applog "kaslot/internal/log"
)

// Collections a page can ask for.
type need uint8

const (
	needEvents need = 1 << iota
	needSuppliers
	needPayments
	needSummary
)

// snapshot is one request's private copy of the backend collections.
type snapshot struct {
	Events    []core.Event
	Suppliers []core.Supplier
	Payments  []core.Payment
	Summary   core.DashboardSummary
	// Failed is set when any load failed; every collection is then empty.
	Failed bool
}

// load fetches the requested collections in parallel under the configured
// timeout. A failure is logged and leaves the snapshot empty, so the view
// renders its empty state with a banner.
func (s *Server) load(ctx context.Context, what need) snapshot {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	if what&needEvents != 0 {
		g.Go(func() error {
			evs, err := s.backend.ListEvents(gctx)
			if err != nil {
				s.metrics.loadFailed("events")
				return fmt.Errorf("list events: %w", err)
			}
			snap.Events = evs
			return nil
		})
	}
	if what&needSuppliers != 0 {
		g.Go(func() error {
			sups, err := s.backend.ListSuppliers(gctx)
			if err != nil {
				s.metrics.loadFailed("suppliers")
				return fmt.Errorf("list suppliers: %w", err)
			}
			snap.Suppliers = sups
			return nil
		})
	}
	if what&needPayments != 0 {
		g.Go(func() error {
			pays, err := s.backend.ListPayments(gctx)
			if err != nil {
				s.metrics.loadFailed("payments")
				return fmt.Errorf("list payments: %w", err)
			}
			snap.Payments = pays
			return nil
		})
	}
	if what&needSummary != 0 {
		g.Go(func() error {
			sum, err := s.backend.Summary(gctx)
			if err != nil {
				s.metrics.loadFailed("summary")
				return fmt.Errorf("dashboard summary: %w", err)
			}
			snap.Summary = sum
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentBackend).ErrorContext(ctx, "Failed to load collections",
			applog.FieldError, err,
			applog.FieldBackend, s.backendName,
			applog.FieldOperation, applog.OpList)
		return snapshot{Failed: true}
	}

	core.PopulateReferences(snap.Events, snap.Suppliers, snap.Payments)
	return snap
}
