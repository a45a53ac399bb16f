package adapters

import (
	"context"

	"kaslot/internal/core"
	"kaslot/internal/services"
	"kaslot/internal/storage"
)

// SQLiteAdapter serves the store ports from SQLite. Reads go straight to the
// repository; writes go through LedgerService so they publish change messages.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.LedgerService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.LedgerService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// ListEvents implements store.EventStore
func (a *SQLiteAdapter) ListEvents(ctx context.Context) ([]core.Event, error) {
	return a.storage.ListEvents(ctx)
}

func (a *SQLiteAdapter) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	return a.service.CreateEvent(ctx, ev)
}

func (a *SQLiteAdapter) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	return a.service.UpdateEvent(ctx, id, ev)
}

func (a *SQLiteAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.service.DeleteEvent(ctx, id)
}

// AddParticipant implements store.ParticipantStore
func (a *SQLiteAdapter) AddParticipant(ctx context.Context, eventID string, p core.Participant) error {
	return a.service.AddParticipant(ctx, eventID, p)
}

func (a *SQLiteAdapter) UpdateParticipant(ctx context.Context, eventID string, p core.Participant) error {
	return a.service.UpdateParticipant(ctx, eventID, p)
}

func (a *SQLiteAdapter) RemoveParticipant(ctx context.Context, eventID, supplierID string) error {
	return a.service.RemoveParticipant(ctx, eventID, supplierID)
}

// ListSuppliers implements store.SupplierStore
func (a *SQLiteAdapter) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return a.storage.ListSuppliers(ctx)
}

func (a *SQLiteAdapter) CreateSupplier(ctx context.Context, s core.Supplier) (core.Supplier, error) {
	return a.service.CreateSupplier(ctx, s)
}

func (a *SQLiteAdapter) UpdateSupplier(ctx context.Context, id string, s core.Supplier) (core.Supplier, error) {
	return a.service.UpdateSupplier(ctx, id, s)
}

func (a *SQLiteAdapter) DeleteSupplier(ctx context.Context, id string) error {
	return a.service.DeleteSupplier(ctx, id)
}

// ListPayments implements store.PaymentStore
func (a *SQLiteAdapter) ListPayments(ctx context.Context) ([]core.Payment, error) {
	return a.storage.ListPayments(ctx)
}

func (a *SQLiteAdapter) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	return a.service.CreatePayment(ctx, p)
}

func (a *SQLiteAdapter) DeletePayment(ctx context.Context, id string) error {
	return a.service.DeletePayment(ctx, id)
}

// Summary implements store.DashboardReader
func (a *SQLiteAdapter) Summary(ctx context.Context) (core.DashboardSummary, error) {
	return a.storage.Summary(ctx)
}

// SupplierReport implements store.ReportReader
func (a *SQLiteAdapter) SupplierReport(ctx context.Context, supplierID string) (core.SupplierReport, error) {
	return a.storage.SupplierReport(ctx, supplierID)
}
