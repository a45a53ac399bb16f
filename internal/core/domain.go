package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MethodCash         PaymentMethod = "Cash"
	MethodBit          PaymentMethod = "Bit"
	MethodPaybox       PaymentMethod = "Paybox"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCheck        PaymentMethod = "Check"
	MethodLoan         PaymentMethod = "Loan"
)

// DefaultLoanNote is stored on loan payments recorded without a note.
const DefaultLoanNote = "הלוואה"

type (
	PaymentMethod string

	Date struct {
		time.Time
	}

	// Ref points to another record. The backend may send either the bare
	// identifier or a populated object, so both shapes decode into Ref.
	Ref struct {
		ID    string
		Name  string
		Role  string
		Title string
	}

	Participant struct {
		Supplier    Ref      `json:"supplierId"`
		ExpectedPay Money    `json:"expectedPay"`
		Currency    Currency `json:"currency"`
	}

	Event struct {
		ID           string        `json:"_id,omitempty"`
		Title        string        `json:"title"`
		Date         Date          `json:"date"`
		Location     string        `json:"location,omitempty"`
		PhoneNumber  string        `json:"phone_number,omitempty"`
		TotalPrice   Money         `json:"totalPrice"`
		Currency     Currency      `json:"currency"`
		Participants []Participant `json:"participants"`
	}

	Supplier struct {
		ID              string    `json:"_id,omitempty"`
		Name            string    `json:"name"`
		Role            string    `json:"role"`
		ContactInfo     string    `json:"contact_info,omitempty"`
		DefaultPrice    *Money    `json:"defaultPrice,omitempty"`
		DefaultCurrency *Currency `json:"defaultCurrency,omitempty"`
	}

	Payment struct {
		ID       string        `json:"_id,omitempty"`
		Amount   Money         `json:"amount"`
		Currency Currency      `json:"currency"`
		Method   PaymentMethod `json:"method"`
		Note     string        `json:"note,omitempty"`
		Event    *Ref          `json:"eventId,omitempty"`
		Supplier Ref           `json:"supplierId"`
		Date     Date          `json:"date"`
	}
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateParticipant = errors.New("supplier already participates in event")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrInvalidMethod        = errors.New("invalid payment method")
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyTitle           = errors.New("empty title")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyRole            = errors.New("empty role")
	ErrMissingSupplier      = errors.New("missing supplier")
)

var methodLabels = map[PaymentMethod]string{
	MethodCash:         "מזומן",
	MethodBit:          "ביט",
	MethodPaybox:       "פייבוקס",
	MethodBankTransfer: "העברה בנקאית",
	MethodCheck:        "צ'ק",
	MethodLoan:         "הלוואה",
}

// PaymentMethods lists the supported methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodBit, MethodPaybox, MethodBankTransfer, MethodCheck, MethodLoan}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

func (m PaymentMethod) Valid() bool {
	_, ok := methodLabels[m]
	return ok
}

// Label returns the Hebrew label, or the raw value for unknown methods.
func (m PaymentMethod) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a plain calendar date or an RFC 3339 timestamp and
// truncates it to the UTC day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// ISO formats the date as YYYY-MM-DD, the form used by date inputs.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Short formats the date the way he-IL short dates read (D.M.YYYY).
func (d Date) Short() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2.1.2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.ISO())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (r Ref) IsZero() bool {
	return r.ID == ""
}

// Label renders a supplier reference as "name (role)".
func (r Ref) Label() string {
	switch {
	case r.Name == "":
		return r.ID
	case r.Role == "":
		return r.Name
	default:
		return r.Name + " (" + r.Role + ")"
	}
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = Ref{}
		return nil
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var populated struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Role  string `json:"role"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(b, &populated); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*r = Ref(populated)
	return nil
}

// RefTo builds a populated reference to the supplier.
func (s Supplier) RefTo() Ref {
	return Ref{ID: s.ID, Name: s.Name, Role: s.Role}
}

func (s Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(s.Role) == "" {
		return ErrEmptyRole
	}
	if s.DefaultPrice != nil && s.DefaultPrice.IsNegative() {
		return ErrInvalidAmount
	}
	if s.DefaultCurrency != nil && !s.DefaultCurrency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (p Participant) Validate() error {
	if p.Supplier.IsZero() {
		return ErrMissingSupplier
	}
	if p.ExpectedPay.IsNegative() {
		return ErrInvalidAmount
	}
	if !p.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.TotalPrice.IsNegative() {
		return ErrInvalidAmount
	}
	if !e.Currency.Valid() {
		return ErrInvalidCurrency
	}
	for _, p := range e.Participants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExpectedTotal sums participant pay without regard to currency.
func (e Event) ExpectedTotal() Money {
	var total Money
	for _, p := range e.Participants {
		total = total.Add(p.ExpectedPay)
	}
	return total
}

// Profit is the event price minus what the participants expect to be paid.
func (e Event) Profit() Money {
	return e.TotalPrice.Sub(e.ExpectedTotal())
}

// Participant returns the participant entry for the supplier, if any.
func (e Event) Participant(supplierID string) (Participant, bool) {
	for _, p := range e.Participants {
		if p.Supplier.ID == supplierID {
			return p, true
		}
	}
	return Participant{}, false
}

func (p Payment) Validate() error {
	if p.Supplier.IsZero() {
		return ErrMissingSupplier
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if !p.Method.Valid() {
		return ErrInvalidMethod
	}
	if len(p.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

// EventID returns the referenced event id, or "" for general payments.
func (p Payment) EventID() string {
	if p.Event == nil {
		return ""
	}
	return p.Event.ID
}
