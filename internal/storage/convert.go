package storage

import (
	"database/sql"

	"kaslot/internal/core"
)

// Rows store currencies by name and dates as YYYY-MM-DD text. Unparseable
// stored values fall back to the zero value.

func currencyOf(s string) core.Currency {
	c, _ := core.ParseCurrency(s)
	return c
}

func dateOf(s string) core.Date {
	d, _ := core.ParseDate(s)
	return d
}

func supplierFromRow(row SupplierRow) core.Supplier {
	s := core.Supplier{
		ID:          row.ID,
		Name:        row.Name,
		Role:        row.Role,
		ContactInfo: row.ContactInfo,
	}
	if row.DefaultPriceCents.Valid {
		s.DefaultPrice = &core.Money{Cents: row.DefaultPriceCents.Int64}
	}
	if row.DefaultCurrency.Valid {
		c := currencyOf(row.DefaultCurrency.String)
		s.DefaultCurrency = &c
	}
	return s
}

func supplierToRow(s core.Supplier) SupplierRow {
	row := SupplierRow{
		ID:          s.ID,
		Name:        s.Name,
		Role:        s.Role,
		ContactInfo: s.ContactInfo,
	}
	if s.DefaultPrice != nil {
		row.DefaultPriceCents = sql.NullInt64{Int64: s.DefaultPrice.Cents, Valid: true}
	}
	if s.DefaultCurrency != nil {
		row.DefaultCurrency = sql.NullString{String: s.DefaultCurrency.String(), Valid: true}
	}
	return row
}

func eventFromRow(row EventRow) core.Event {
	return core.Event{
		ID:          row.ID,
		Title:       row.Title,
		Date:        dateOf(row.EventDate),
		Location:    row.Location,
		PhoneNumber: row.PhoneNumber,
		TotalPrice:  core.Money{Cents: row.TotalPriceCents},
		Currency:    currencyOf(row.Currency),
	}
}

func eventToRow(ev core.Event) EventRow {
	return EventRow{
		ID:              ev.ID,
		Title:           ev.Title,
		EventDate:       ev.Date.ISO(),
		Location:        ev.Location,
		PhoneNumber:     ev.PhoneNumber,
		TotalPriceCents: ev.TotalPrice.Cents,
		Currency:        ev.Currency.String(),
	}
}

func participantFromRow(row ParticipantRow) core.Participant {
	return core.Participant{
		Supplier:    core.Ref{ID: row.SupplierID, Name: row.SupplierName, Role: row.SupplierRole},
		ExpectedPay: core.Money{Cents: row.ExpectedPayCents},
		Currency:    currencyOf(row.Currency),
	}
}

func participantToRow(eventID string, p core.Participant) ParticipantRow {
	return ParticipantRow{
		EventID:          eventID,
		SupplierID:       p.Supplier.ID,
		ExpectedPayCents: p.ExpectedPay.Cents,
		Currency:         p.Currency.String(),
	}
}

func paymentFromRow(row PaymentRow) core.Payment {
	p := core.Payment{
		ID:       row.ID,
		Amount:   core.Money{Cents: row.AmountCents},
		Currency: currencyOf(row.Currency),
		Method:   core.PaymentMethod(row.Method),
		Note:     row.Note,
		Supplier: core.Ref{ID: row.SupplierID, Name: row.SupplierName, Role: row.SupplierRole},
		Date:     dateOf(row.PaymentDate),
	}
	if row.EventID.Valid && row.EventID.String != "" {
		p.Event = &core.Ref{ID: row.EventID.String, Title: row.EventTitle.String}
	}
	return p
}

func paymentToRow(p core.Payment) PaymentRow {
	row := PaymentRow{
		ID:          p.ID,
		SupplierID:  p.Supplier.ID,
		AmountCents: p.Amount.Cents,
		Currency:    p.Currency.String(),
		Method:      string(p.Method),
		Note:        p.Note,
		PaymentDate: p.Date.ISO(),
	}
	if id := p.EventID(); id != "" {
		row.EventID = sql.NullString{String: id, Valid: true}
	}
	return row
}
