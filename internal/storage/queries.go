package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SupplierRow struct {
	ID                string
	Name              string
	Role              string
	ContactInfo       string
	DefaultPriceCents sql.NullInt64
	DefaultCurrency   sql.NullString
}

type EventRow struct {
	ID              string
	Title           string
	EventDate       string
	Location        string
	PhoneNumber     string
	TotalPriceCents int64
	Currency        string
}

type ParticipantRow struct {
	EventID          string
	SupplierID       string
	SupplierName     string
	SupplierRole     string
	ExpectedPayCents int64
	Currency         string
}

type PaymentRow struct {
	ID           string
	SupplierID   string
	SupplierName string
	SupplierRole string
	EventID      sql.NullString
	EventTitle   sql.NullString
	AmountCents  int64
	Currency     string
	Method       string
	Note         string
	PaymentDate  string
}

type ActivityRow struct {
	ID         int64
	Entity     string
	Action     string
	EntityID   string
	OccurredAt string
}

const listSuppliers = `SELECT id, name, role, contact_info, default_price_cents, default_currency
FROM suppliers ORDER BY created_at, rowid`

func (q *Queries) ListSuppliers(ctx context.Context) ([]SupplierRow, error) {
	rows, err := q.db.QueryContext(ctx, listSuppliers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SupplierRow
	for rows.Next() {
		var i SupplierRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Role, &i.ContactInfo, &i.DefaultPriceCents, &i.DefaultCurrency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSupplier = `SELECT id, name, role, contact_info, default_price_cents, default_currency
FROM suppliers WHERE id = ?`

func (q *Queries) GetSupplier(ctx context.Context, id string) (SupplierRow, error) {
	var i SupplierRow
	err := q.db.QueryRowContext(ctx, getSupplier, id).
		Scan(&i.ID, &i.Name, &i.Role, &i.ContactInfo, &i.DefaultPriceCents, &i.DefaultCurrency)
	return i, err
}

const createSupplier = `INSERT INTO suppliers (id, name, role, contact_info, default_price_cents, default_currency)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSupplier(ctx context.Context, arg SupplierRow) error {
	_, err := q.db.ExecContext(ctx, createSupplier,
		arg.ID, arg.Name, arg.Role, arg.ContactInfo, arg.DefaultPriceCents, arg.DefaultCurrency)
	return err
}

const updateSupplier = `UPDATE suppliers
SET name = ?, role = ?, contact_info = ?, default_price_cents = ?, default_currency = ?
WHERE id = ?`

func (q *Queries) UpdateSupplier(ctx context.Context, arg SupplierRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateSupplier,
		arg.Name, arg.Role, arg.ContactInfo, arg.DefaultPriceCents, arg.DefaultCurrency, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSupplier = `DELETE FROM suppliers WHERE id = ?`

func (q *Queries) DeleteSupplier(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSupplier, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listEvents = `SELECT id, title, event_date, location, phone_number, total_price_cents, currency
FROM events ORDER BY event_date DESC, rowid DESC`

func (q *Queries) ListEvents(ctx context.Context) ([]EventRow, error) {
	rows, err := q.db.QueryContext(ctx, listEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventRow
	for rows.Next() {
		var i EventRow
		if err := rows.Scan(&i.ID, &i.Title, &i.EventDate, &i.Location, &i.PhoneNumber, &i.TotalPriceCents, &i.Currency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createEvent = `INSERT INTO events (id, title, event_date, location, phone_number, total_price_cents, currency)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateEvent(ctx context.Context, arg EventRow) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.ID, arg.Title, arg.EventDate, arg.Location, arg.PhoneNumber, arg.TotalPriceCents, arg.Currency)
	return err
}

const updateEvent = `UPDATE events
SET title = ?, event_date = ?, location = ?, phone_number = ?, total_price_cents = ?, currency = ?
WHERE id = ?`

func (q *Queries) UpdateEvent(ctx context.Context, arg EventRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEvent,
		arg.Title, arg.EventDate, arg.Location, arg.PhoneNumber, arg.TotalPriceCents, arg.Currency, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

func (q *Queries) DeleteEvent(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const eventExists = `SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`

func (q *Queries) EventExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, eventExists, id).Scan(&ok)
	return ok, err
}

const listParticipants = `SELECT p.event_id, p.supplier_id, s.name, s.role, p.expected_pay_cents, p.currency
FROM participants p JOIN suppliers s ON s.id = p.supplier_id
ORDER BY p.event_id, p.position`

func (q *Queries) ListParticipants(ctx context.Context) ([]ParticipantRow, error) {
	rows, err := q.db.QueryContext(ctx, listParticipants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ParticipantRow
	for rows.Next() {
		var i ParticipantRow
		if err := rows.Scan(&i.EventID, &i.SupplierID, &i.SupplierName, &i.SupplierRole, &i.ExpectedPayCents, &i.Currency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const participantExists = `SELECT EXISTS(SELECT 1 FROM participants WHERE event_id = ? AND supplier_id = ?)`

func (q *Queries) ParticipantExists(ctx context.Context, eventID, supplierID string) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, participantExists, eventID, supplierID).Scan(&ok)
	return ok, err
}

const addParticipant = `INSERT INTO participants (event_id, supplier_id, position, expected_pay_cents, currency)
VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM participants WHERE event_id = ?), ?, ?)`

func (q *Queries) AddParticipant(ctx context.Context, arg ParticipantRow) error {
	_, err := q.db.ExecContext(ctx, addParticipant,
		arg.EventID, arg.SupplierID, arg.EventID, arg.ExpectedPayCents, arg.Currency)
	return err
}

const updateParticipant = `UPDATE participants SET expected_pay_cents = ?, currency = ?
WHERE event_id = ? AND supplier_id = ?`

func (q *Queries) UpdateParticipant(ctx context.Context, arg ParticipantRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateParticipant, arg.ExpectedPayCents, arg.Currency, arg.EventID, arg.SupplierID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const removeParticipant = `DELETE FROM participants WHERE event_id = ? AND supplier_id = ?`

func (q *Queries) RemoveParticipant(ctx context.Context, eventID, supplierID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, removeParticipant, eventID, supplierID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPayments = `SELECT p.id, p.supplier_id, s.name, s.role, p.event_id, e.title,
       p.amount_cents, p.currency, p.method, p.note, p.payment_date
FROM payments p
JOIN suppliers s ON s.id = p.supplier_id
LEFT JOIN events e ON e.id = p.event_id
ORDER BY p.payment_date DESC, p.rowid DESC`

func (q *Queries) ListPayments(ctx context.Context) ([]PaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentRow
	for rows.Next() {
		var i PaymentRow
		if err := rows.Scan(&i.ID, &i.SupplierID, &i.SupplierName, &i.SupplierRole, &i.EventID, &i.EventTitle,
			&i.AmountCents, &i.Currency, &i.Method, &i.Note, &i.PaymentDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPayment = `INSERT INTO payments (id, supplier_id, event_id, amount_cents, currency, method, note, payment_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreatePayment(ctx context.Context, arg PaymentRow) error {
	_, err := q.db.ExecContext(ctx, createPayment,
		arg.ID, arg.SupplierID, arg.EventID, arg.AmountCents, arg.Currency, arg.Method, arg.Note, arg.PaymentDate)
	return err
}

const deletePayment = `DELETE FROM payments WHERE id = ?`

func (q *Queries) DeletePayment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertActivity = `INSERT INTO activity_log (entity, action, entity_id, occurred_at) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertActivity(ctx context.Context, arg ActivityRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertActivity, arg.Entity, arg.Action, arg.EntityID, arg.OccurredAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listActivity = `SELECT id, entity, action, entity_id, occurred_at
FROM activity_log ORDER BY id DESC LIMIT ?`

func (q *Queries) ListActivity(ctx context.Context, limit int64) ([]ActivityRow, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ActivityRow
	for rows.Next() {
		var i ActivityRow
		if err := rows.Scan(&i.ID, &i.Entity, &i.Action, &i.EntityID, &i.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
