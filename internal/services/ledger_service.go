package services

import (
	"context"
	"fmt"
	"log/slog"

	"kaslot/internal/amqp"
	"kaslot/internal/core"
	"kaslot/internal/storage"
)

// Publisher announces committed changes.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ChangeMessage) error
}

// LedgerService orchestrates ledger mutations across SQLite and AMQP. A
// mutation succeeds once it is stored; publishing is best effort.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
}

// NewLedgerService wires the repository with an optional publisher.
func NewLedgerService(storage *storage.SQLiteRepository, publisher Publisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
	}
}

func (s *LedgerService) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	created, err := s.storage.CreateEvent(ctx, ev)
	if err != nil {
		return core.Event{}, fmt.Errorf("save event: %w", err)
	}
	s.notify(ctx, amqp.EntityEvent, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	updated, err := s.storage.UpdateEvent(ctx, id, ev)
	if err != nil {
		return core.Event{}, fmt.Errorf("update event: %w", err)
	}
	s.notify(ctx, amqp.EntityEvent, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.storage.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.notify(ctx, amqp.EntityEvent, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) AddParticipant(ctx context.Context, eventID string, p core.Participant) error {
	if err := s.storage.AddParticipant(ctx, eventID, p); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	s.notify(ctx, amqp.EntityParticipant, amqp.ActionCreated, amqp.ParticipantID(eventID, p.Supplier.ID))
	return nil
}

func (s *LedgerService) UpdateParticipant(ctx context.Context, eventID string, p core.Participant) error {
	if err := s.storage.UpdateParticipant(ctx, eventID, p); err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	s.notify(ctx, amqp.EntityParticipant, amqp.ActionUpdated, amqp.ParticipantID(eventID, p.Supplier.ID))
	return nil
}

func (s *LedgerService) RemoveParticipant(ctx context.Context, eventID, supplierID string) error {
	if err := s.storage.RemoveParticipant(ctx, eventID, supplierID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	s.notify(ctx, amqp.EntityParticipant, amqp.ActionDeleted, amqp.ParticipantID(eventID, supplierID))
	return nil
}

func (s *LedgerService) CreateSupplier(ctx context.Context, sup core.Supplier) (core.Supplier, error) {
	created, err := s.storage.CreateSupplier(ctx, sup)
	if err != nil {
		return core.Supplier{}, fmt.Errorf("save supplier: %w", err)
	}
	s.notify(ctx, amqp.EntitySupplier, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateSupplier(ctx context.Context, id string, sup core.Supplier) (core.Supplier, error) {
	updated, err := s.storage.UpdateSupplier(ctx, id, sup)
	if err != nil {
		return core.Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	s.notify(ctx, amqp.EntitySupplier, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.storage.DeleteSupplier(ctx, id); err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	s.notify(ctx, amqp.EntitySupplier, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	created, err := s.storage.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.notify(ctx, amqp.EntityPayment, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) DeletePayment(ctx context.Context, id string) error {
	if err := s.storage.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.notify(ctx, amqp.EntityPayment, amqp.ActionDeleted, id)
	return nil
}

// notify publishes a change message. Failures are logged and never returned:
// the change is already committed locally.
func (s *LedgerService) notify(ctx context.Context, entity, action, id string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change message",
			"component", "ledger", "entity", entity, "id", id)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewChangeMessage(entity, action, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"component", "ledger", "entity", entity, "action", action, "id", id, "error", err)
	}
}

// Close closes storage and the publisher when it is closable.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
