package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kaslot/internal/core"
)

func newTestStore() *Store {
	s := New()
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	s.now = func() time.Time { return time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC) }
	return s
}

func mustSupplier(t *testing.T, s *Store, name, role string) core.Supplier {
	t.Helper()
	sup, err := s.CreateSupplier(context.Background(), core.Supplier{Name: name, Role: role})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return sup
}

func mustEvent(t *testing.T, s *Store, title string, price int64) core.Event {
	t.Helper()
	ev, err := s.CreateEvent(context.Background(), core.Event{
		Title:      title,
		Date:       core.NewDate(2025, 3, 1),
		TotalPrice: core.Money{Cents: price},
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}

func TestParticipantsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	ev := mustEvent(t, s, "Wedding", 100000)

	p := core.Participant{Supplier: core.Ref{ID: dana.ID}, ExpectedPay: core.Money{Cents: 40000}}
	if err := s.AddParticipant(ctx, ev.ID, p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := s.AddParticipant(ctx, ev.ID, p); !errors.Is(err, core.ErrDuplicateParticipant) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := s.AddParticipant(ctx, ev.ID, core.Participant{Supplier: core.Ref{ID: "missing"}}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for unknown supplier, got %v", err)
	}

	p.ExpectedPay = core.Money{Cents: 45000}
	p.Currency = core.Dollar
	if err := s.UpdateParticipant(ctx, ev.ID, p); err != nil {
		t.Fatalf("update participant: %v", err)
	}

	events, _ := s.ListEvents(ctx)
	got := events[0].Participants[0]
	if got.ExpectedPay.Cents != 45000 || got.Currency != core.Dollar {
		t.Fatalf("participant not updated: %+v", got)
	}
	if got.Supplier.Label() != "Dana (Drums)" {
		t.Fatalf("participant reference not populated: %+v", got.Supplier)
	}

	if err := s.RemoveParticipant(ctx, ev.ID, dana.ID); err != nil {
		t.Fatalf("remove participant: %v", err)
	}
	if err := s.RemoveParticipant(ctx, ev.ID, dana.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestListEventsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	ev := mustEvent(t, s, "Wedding", 1000)
	_ = s.AddParticipant(ctx, ev.ID, core.Participant{Supplier: core.Ref{ID: dana.ID}})

	events, _ := s.ListEvents(ctx)
	events[0].Title = "changed"
	events[0].Participants[0].ExpectedPay = core.Money{Cents: 999}

	again, _ := s.ListEvents(ctx)
	if again[0].Title != "Wedding" || !again[0].Participants[0].ExpectedPay.IsZero() {
		t.Fatalf("store state leaked through returned slice: %+v", again[0])
	}
}

func TestDeleteEventCascadesPayments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	ev := mustEvent(t, s, "Wedding", 1000)

	for _, evRef := range []*core.Ref{{ID: ev.ID}, nil} {
		_, err := s.CreatePayment(ctx, core.Payment{
			Supplier: core.Ref{ID: dana.ID},
			Amount:   core.Money{Cents: 100},
			Method:   core.MethodCash,
			Event:    evRef,
		})
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	if err := s.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	payments, _ := s.ListPayments(ctx)
	if len(payments) != 1 || payments[0].EventID() != "" {
		t.Fatalf("expected only the general payment to remain, got %+v", payments)
	}
	if err := s.DeleteEvent(ctx, ev.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteSupplierCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	avi := mustSupplier(t, s, "Avi", "Sound")
	ev := mustEvent(t, s, "Wedding", 1000)
	_ = s.AddParticipant(ctx, ev.ID, core.Participant{Supplier: core.Ref{ID: dana.ID}})
	_ = s.AddParticipant(ctx, ev.ID, core.Participant{Supplier: core.Ref{ID: avi.ID}})
	_, _ = s.CreatePayment(ctx, core.Payment{Supplier: core.Ref{ID: dana.ID}, Amount: core.Money{Cents: 5}, Method: core.MethodBit})

	if err := s.DeleteSupplier(ctx, dana.ID); err != nil {
		t.Fatalf("delete supplier: %v", err)
	}
	events, _ := s.ListEvents(ctx)
	if len(events[0].Participants) != 1 || events[0].Participants[0].Supplier.ID != avi.ID {
		t.Fatalf("participation not removed: %+v", events[0].Participants)
	}
	if payments, _ := s.ListPayments(ctx); len(payments) != 0 {
		t.Fatalf("payments not removed: %+v", payments)
	}
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	ev := mustEvent(t, s, "Wedding", 1000)

	tests := []struct {
		name    string
		payment core.Payment
		wantErr error
	}{
		{
			name:    "unknown supplier",
			payment: core.Payment{Supplier: core.Ref{ID: "nobody"}, Amount: core.Money{Cents: 1}, Method: core.MethodCash},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "unknown event",
			payment: core.Payment{Supplier: core.Ref{ID: dana.ID}, Event: &core.Ref{ID: "nope"}, Amount: core.Money{Cents: 1}, Method: core.MethodCash},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "zero amount",
			payment: core.Payment{Supplier: core.Ref{ID: dana.ID}, Method: core.MethodCash},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "event payment",
			payment: core.Payment{Supplier: core.Ref{ID: dana.ID}, Event: &core.Ref{ID: ev.ID}, Amount: core.Money{Cents: 1}, Method: core.MethodLoan},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.CreatePayment(ctx, tt.payment)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ID == "" || !p.Date.Equal(core.NewDate(2025, 4, 9).Time) {
				t.Fatalf("payment not stamped: %+v", p)
			}
		})
	}

	payments, _ := s.ListPayments(ctx)
	if len(payments) != 1 || payments[0].Event.Title != "Wedding" || payments[0].Supplier.Name != "Dana" {
		t.Fatalf("payment references not populated: %+v", payments)
	}
}

func TestSummaryAndReport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dana := mustSupplier(t, s, "Dana", "Drums")
	ev := mustEvent(t, s, "Wedding", 100000)
	_ = s.AddParticipant(ctx, ev.ID, core.Participant{Supplier: core.Ref{ID: dana.ID}, ExpectedPay: core.Money{Cents: 20000}})
	_, _ = s.CreatePayment(ctx, core.Payment{Supplier: core.Ref{ID: dana.ID}, Amount: core.Money{Cents: 10000}, Method: core.MethodCash})
	_, _ = s.CreatePayment(ctx, core.Payment{Supplier: core.Ref{ID: dana.ID}, Amount: core.Money{Cents: 5000}, Method: core.MethodLoan})

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalEvents != 1 || sum.TotalProfit.Get(core.Shekel).Cents != 80000 || sum.TotalOwed.Get(core.Shekel).Cents != 5000 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	report, err := s.SupplierReport(ctx, dana.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Events) != 1 || len(report.Payments) != 2 || report.Balance().Get(core.Shekel).Cents != 5000 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := s.SupplierReport(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing seed should not fail: %v", err)
	}
	if sups, _ := s.ListSuppliers(context.Background()); len(sups) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	seed := `{
		"suppliers": [{"_id": "s1", "name": "Dana", "role": "Drums"}, {"name": "Avi", "role": "Sound"}],
		"events": [{"_id": "e1", "title": "Wedding", "date": "2024-06-01", "totalPrice": 1000,
			"participants": [{"supplierId": "s1", "expectedPay": 400}]}],
		"payments": [{"supplierId": "s1", "amount": 100, "method": "Cash", "eventId": "e1", "date": "2024-06-02"}]
	}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	sups, _ := s.ListSuppliers(context.Background())
	if len(sups) != 2 || sups[1].ID == "" {
		t.Fatalf("unexpected suppliers %+v", sups)
	}
	report, _ := s.SupplierReport(context.Background(), "s1")
	if report.Balance().Get(core.Shekel).Cents != 30000 {
		t.Fatalf("unexpected seeded balance %+v", report.Balance())
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected error for malformed seed")
	}
}
