package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-05-01", NewDate(2024, 5, 1), true},
		{"2024-05-01T00:00:00.000Z", NewDate(2024, 5, 1), true},
		{"2024-05-01T22:30:00-02:00", NewDate(2024, 5, 2), true},
		{" 2024-12-31 ", NewDate(2024, 12, 31), true},
		{"", Date{}, false},
		{"01/05/2024", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateFormats(t *testing.T) {
	d := NewDate(2024, 3, 7)
	if d.ISO() != "2024-03-07" {
		t.Fatalf("ISO = %q", d.ISO())
	}
	if d.Short() != "7.3.2024" {
		t.Fatalf("Short = %q", d.Short())
	}
	if (Date{}).Short() != "" {
		t.Fatalf("zero date should format empty")
	}
}

func TestRefDecodesBothShapes(t *testing.T) {
	var payload struct {
		Plain     Ref  `json:"plain"`
		Populated Ref  `json:"populated"`
		Missing   *Ref `json:"missing"`
	}
	body := `{"plain":"s1","populated":{"_id":"s2","name":"Dana","role":"Drums"},"missing":null}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Plain.ID != "s1" || payload.Plain.Name != "" {
		t.Fatalf("plain ref = %+v", payload.Plain)
	}
	if payload.Populated.ID != "s2" || payload.Populated.Label() != "Dana (Drums)" {
		t.Fatalf("populated ref = %+v", payload.Populated)
	}
	if payload.Missing != nil {
		t.Fatalf("null ref should stay nil")
	}
}

func TestPaymentDecodesBackendRecord(t *testing.T) {
	body := `{
		"_id": "p1",
		"amount": 150.5,
		"currency": "Dollar",
		"method": "Bank Transfer",
		"eventId": {"_id": "e1", "title": "Wedding"},
		"supplierId": "s1",
		"date": "2024-06-10T09:15:00.000Z"
	}`
	var p Payment
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Amount.Cents != 15050 || p.Currency != Dollar || p.Method != MethodBankTransfer {
		t.Fatalf("unexpected payment: %+v", p)
	}
	if p.EventID() != "e1" || p.Event.Title != "Wedding" || p.Supplier.ID != "s1" {
		t.Fatalf("unexpected references: %+v", p)
	}
	if !p.Date.Equal(NewDate(2024, 6, 10).Time) {
		t.Fatalf("unexpected date: %v", p.Date)
	}
}

func TestParticipantDefaultsToShekel(t *testing.T) {
	var p Participant
	if err := json.Unmarshal([]byte(`{"supplierId":"s1","expectedPay":400}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Currency != Shekel || p.ExpectedPay.Cents != 40000 {
		t.Fatalf("unexpected participant: %+v", p)
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if m, err := ParsePaymentMethod("bank transfer"); err != nil || m != MethodBankTransfer {
		t.Fatalf("expected Bank Transfer, got %q (err=%v)", m, err)
	}
	if _, err := ParsePaymentMethod("Crypto"); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	if MethodLoan.Label() != "הלוואה" {
		t.Fatalf("unexpected loan label %q", MethodLoan.Label())
	}
}

func TestEventValidate(t *testing.T) {
	good := Event{
		Title:      "Wedding",
		Date:       NewDate(2025, 1, 1),
		TotalPrice: Money{Cents: 100000},
		Participants: []Participant{
			{Supplier: Ref{ID: "s1"}, ExpectedPay: Money{Cents: 40000}},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Event)
		want   error
	}{
		{"empty title", func(e *Event) { e.Title = " " }, ErrEmptyTitle},
		{"zero date", func(e *Event) { e.Date = Date{} }, ErrInvalidDate},
		{"negative price", func(e *Event) { e.TotalPrice = Money{Cents: -1} }, ErrInvalidAmount},
		{"bad currency", func(e *Event) { e.Currency = Currency(9) }, ErrInvalidCurrency},
		{"participant without supplier", func(e *Event) { e.Participants[0].Supplier = Ref{} }, ErrMissingSupplier},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := good
			ev.Participants = append([]Participant(nil), good.Participants...)
			tc.mutate(&ev)
			if err := ev.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{Supplier: Ref{ID: "s1"}, Amount: Money{Cents: 100}, Method: MethodLoan}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Payment{
		{Amount: Money{Cents: 100}, Method: MethodCash},
		{Supplier: Ref{ID: "s1"}, Amount: Money{Cents: 0}, Method: MethodCash},
		{Supplier: Ref{ID: "s1"}, Amount: Money{Cents: 100}, Method: "Crypto"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEventProfit(t *testing.T) {
	ev := Event{
		TotalPrice: Money{Cents: 100000},
		Participants: []Participant{
			{Supplier: Ref{ID: "a"}, ExpectedPay: Money{Cents: 30000}},
			{Supplier: Ref{ID: "b"}, ExpectedPay: Money{Cents: 10000}},
		},
	}
	if got := ev.ExpectedTotal().Cents; got != 40000 {
		t.Fatalf("ExpectedTotal = %d", got)
	}
	if got := ev.Profit().Cents; got != 60000 {
		t.Fatalf("Profit = %d", got)
	}
	if _, ok := ev.Participant("b"); !ok {
		t.Fatalf("expected participant b")
	}
}
