// Package store declares the ports the dashboard uses to reach its data,
// whichever backend holds it.
package store

import (
	"context"

	"kaslot/internal/core"
)

// Ports for outbound adapters.
type (
	EventStore interface {
		// ListEvents returns every event with its participants embedded.
		ListEvents(ctx context.Context) ([]core.Event, error)
		CreateEvent(ctx context.Context, ev core.Event) (core.Event, error)
		// UpdateEvent replaces the event fields. Participants are left untouched.
		UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error)
		// DeleteEvent removes the event together with its participants and payments.
		DeleteEvent(ctx context.Context, id string) error
	}

	ParticipantStore interface {
		// AddParticipant attaches a supplier to an event. Attaching the same
		// supplier twice fails with core.ErrDuplicateParticipant.
		AddParticipant(ctx context.Context, eventID string, p core.Participant) error
		UpdateParticipant(ctx context.Context, eventID string, p core.Participant) error
		RemoveParticipant(ctx context.Context, eventID, supplierID string) error
	}

	SupplierStore interface {
		ListSuppliers(ctx context.Context) ([]core.Supplier, error)
		CreateSupplier(ctx context.Context, s core.Supplier) (core.Supplier, error)
		UpdateSupplier(ctx context.Context, id string, s core.Supplier) (core.Supplier, error)
		DeleteSupplier(ctx context.Context, id string) error
	}

	PaymentStore interface {
		ListPayments(ctx context.Context) ([]core.Payment, error)
		CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
		DeletePayment(ctx context.Context, id string) error
	}

	// DashboardReader provides the headline totals of the dashboard.
	DashboardReader interface {
		Summary(ctx context.Context) (core.DashboardSummary, error)
	}

	// ReportReader provides the pre-joined shareable report of one supplier.
	ReportReader interface {
		SupplierReport(ctx context.Context, supplierID string) (core.SupplierReport, error)
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Backend is the full set of ports one data backend serves.
	Backend interface {
		EventStore
		ParticipantStore
		SupplierStore
		PaymentStore
		DashboardReader
		ReportReader
	}
)
