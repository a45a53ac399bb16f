package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kaslot/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the ledger in a local SQLite file. Foreign keys
// are enforced so deleting an event or supplier cascades.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	newID   func() string
}

// ActivityEntry is one change recorded by the activity worker.
type ActivityEntry struct {
	ID         int64
	Entity     string
	Action     string
	EntityID   string
	OccurredAt time.Time
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps the pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		newID:   uuid.NewString,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(kind, id string, affected int64, err error) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// ListSuppliers returns the suppliers in creation order.
func (r *SQLiteRepository) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	rows, err := r.queries.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	out := make([]core.Supplier, 0, len(rows))
	for _, row := range rows {
		out = append(out, supplierFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) GetSupplier(ctx context.Context, id string) (core.Supplier, error) {
	row, err := r.queries.GetSupplier(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Supplier{}, fmt.Errorf("supplier %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Supplier{}, fmt.Errorf("get supplier %s: %w", id, err)
	}
	return supplierFromRow(row), nil
}

func (r *SQLiteRepository) CreateSupplier(ctx context.Context, s core.Supplier) (core.Supplier, error) {
	if err := s.Validate(); err != nil {
		return core.Supplier{}, err
	}
	s.ID = r.newID()
	if err := r.queries.CreateSupplier(ctx, supplierToRow(s)); err != nil {
		return core.Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	slog.InfoContext(ctx, "Supplier saved to SQLite", "component", "storage", "supplier_id", s.ID)
	return s, nil
}

func (r *SQLiteRepository) UpdateSupplier(ctx context.Context, id string, s core.Supplier) (core.Supplier, error) {
	if err := s.Validate(); err != nil {
		return core.Supplier{}, err
	}
	s.ID = id
	n, err := r.queries.UpdateSupplier(ctx, supplierToRow(s))
	if err := notFound("supplier", id, n, err); err != nil {
		return core.Supplier{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) DeleteSupplier(ctx context.Context, id string) error {
	n, err := r.queries.DeleteSupplier(ctx, id)
	return notFound("supplier", id, n, err)
}

// ListEvents returns the events newest first with populated participants.
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	var out []core.Event
	err := r.inTx(ctx, func(q *Queries) error {
		rows, err := q.ListEvents(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		parts, err := q.ListParticipants(ctx)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		byEvent := make(map[string][]core.Participant)
		for _, p := range parts {
			byEvent[p.EventID] = append(byEvent[p.EventID], participantFromRow(p))
		}
		out = make([]core.Event, 0, len(rows))
		for _, row := range rows {
			ev := eventFromRow(row)
			ev.Participants = append([]core.Participant{}, byEvent[row.ID]...)
			out = append(out, ev)
		}
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}
	ev.ID = r.newID()
	ev.Participants = []core.Participant{}
	if err := r.queries.CreateEvent(ctx, eventToRow(ev)); err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	slog.InfoContext(ctx, "Event saved to SQLite", "component", "storage", "event_id", ev.ID, "title", ev.Title)
	return ev, nil
}

// UpdateEvent changes the event fields only. The returned event carries no
// participants.
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}
	ev.ID = id
	n, err := r.queries.UpdateEvent(ctx, eventToRow(ev))
	if err := notFound("event", id, n, err); err != nil {
		return core.Event{}, err
	}
	return ev, nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	n, err := r.queries.DeleteEvent(ctx, id)
	return notFound("event", id, n, err)
}

func (r *SQLiteRepository) AddParticipant(ctx context.Context, eventID string, p core.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.inTx(ctx, func(q *Queries) error {
		ok, err := q.EventExists(ctx, eventID)
		if err != nil {
			return fmt.Errorf("check event %s: %w", eventID, err)
		}
		if !ok {
			return fmt.Errorf("event %s: %w", eventID, core.ErrNotFound)
		}
		if _, err := q.GetSupplier(ctx, p.Supplier.ID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("supplier %s: %w", p.Supplier.ID, core.ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("check supplier %s: %w", p.Supplier.ID, err)
		}
		dup, err := q.ParticipantExists(ctx, eventID, p.Supplier.ID)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if dup {
			return core.ErrDuplicateParticipant
		}
		row := participantToRow(eventID, p)
		if err := q.AddParticipant(ctx, row); err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) UpdateParticipant(ctx context.Context, eventID string, p core.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateParticipant(ctx, participantToRow(eventID, p))
	return notFound("participant", p.Supplier.ID, n, err)
}

func (r *SQLiteRepository) RemoveParticipant(ctx context.Context, eventID, supplierID string) error {
	n, err := r.queries.RemoveParticipant(ctx, eventID, supplierID)
	return notFound("participant", supplierID, n, err)
}

// ListPayments returns the payments newest first with supplier and event
// references populated.
func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.queries.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, paymentFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if p.Date.IsZero() {
		now := time.Now().UTC()
		p.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	p.ID = r.newID()
	err := r.inTx(ctx, func(q *Queries) error {
		if _, err := q.GetSupplier(ctx, p.Supplier.ID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("supplier %s: %w", p.Supplier.ID, core.ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("check supplier %s: %w", p.Supplier.ID, err)
		}
		if id := p.EventID(); id != "" {
			ok, err := q.EventExists(ctx, id)
			if err != nil {
				return fmt.Errorf("check event %s: %w", id, err)
			}
			if !ok {
				return fmt.Errorf("event %s: %w", id, core.ErrNotFound)
			}
		}
		if err := q.CreatePayment(ctx, paymentToRow(p)); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	slog.InfoContext(ctx, "Payment saved to SQLite",
		"component", "storage",
		"payment_id", p.ID,
		"supplier_id", p.Supplier.ID,
		"amount_cents", p.Amount.Cents,
		"currency", p.Currency.String())
	return p, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id string) error {
	n, err := r.queries.DeletePayment(ctx, id)
	return notFound("payment", id, n, err)
}

// Summary computes the dashboard totals from the stored collections.
func (r *SQLiteRepository) Summary(ctx context.Context) (core.DashboardSummary, error) {
	events, suppliers, payments, err := r.snapshot(ctx)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	return core.ComputeSummary(events, suppliers, payments), nil
}

func (r *SQLiteRepository) SupplierReport(ctx context.Context, supplierID string) (core.SupplierReport, error) {
	supplier, err := r.GetSupplier(ctx, supplierID)
	if err != nil {
		return core.SupplierReport{}, err
	}
	events, _, payments, err := r.snapshot(ctx)
	if err != nil {
		return core.SupplierReport{}, err
	}
	return core.BuildSupplierReport(supplier, events, payments), nil
}

func (r *SQLiteRepository) snapshot(ctx context.Context) ([]core.Event, []core.Supplier, []core.Payment, error) {
	events, err := r.ListEvents(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	suppliers, err := r.ListSuppliers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := r.ListPayments(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return events, suppliers, payments, nil
}

// RecordActivity appends a change to the activity log and returns its id.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, e ActivityEntry) (int64, error) {
	id, err := r.queries.InsertActivity(ctx, ActivityRow{
		Entity:     e.Entity,
		Action:     e.Action,
		EntityID:   e.EntityID,
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("record activity: %w", err)
	}
	return id, nil
}

// RecentActivity returns the latest entries, newest first.
func (r *SQLiteRepository) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	rows, err := r.queries.ListActivity(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	out := make([]ActivityEntry, 0, len(rows))
	for _, row := range rows {
		at, _ := time.Parse(time.RFC3339Nano, row.OccurredAt)
		out = append(out, ActivityEntry{
			ID:         row.ID,
			Entity:     row.Entity,
			Action:     row.Action,
			EntityID:   row.EntityID,
			OccurredAt: at,
		})
	}
	return out, nil
}
