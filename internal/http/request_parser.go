// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every mutation form goes through RequestBodyParser, so handlers accept both
// form-encoded posts and JSON bodies.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kaslot/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body, reporting malformed bodies
// as invalid input.
func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", errInvalidInput, err)
	}
	return p, nil
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}

// optionalAmount parses an amount that may be left empty (zero).
func optionalAmount(p *RequestBodyParser, field string) (core.Money, error) {
	v := p.Get(field)
	if v == "" {
		return core.Money{}, nil
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		return core.Money{}, fieldError(field, err)
	}
	return m, nil
}

func currencyField(p *RequestBodyParser, field string) (core.Currency, error) {
	c, err := core.ParseCurrency(p.Get(field))
	if err != nil {
		return core.Shekel, fieldError(field, err)
	}
	return c, nil
}

// parseEventForm builds an event from title, date, location, phone_number,
// totalPrice and currency.
func parseEventForm(p *RequestBodyParser) (core.Event, error) {
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Event{}, fieldError("date", err)
	}
	price, err := optionalAmount(p, "totalPrice")
	if err != nil {
		return core.Event{}, err
	}
	currency, err := currencyField(p, "currency")
	if err != nil {
		return core.Event{}, err
	}
	ev := core.Event{
		Title:        p.Get("title"),
		Date:         date,
		Location:     p.Get("location"),
		PhoneNumber:  p.Get("phone_number"),
		TotalPrice:   price,
		Currency:     currency,
		Participants: []core.Participant{},
	}
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}
	return ev, nil
}

// parseSupplierForm builds a supplier from name, role, contact_info and the
// optional defaultPrice/defaultCurrency pair.
func parseSupplierForm(p *RequestBodyParser) (core.Supplier, error) {
	s := core.Supplier{
		Name:        p.Get("name"),
		Role:        p.Get("role"),
		ContactInfo: p.Get("contact_info"),
	}
	if v := p.Get("defaultPrice"); v != "" {
		price, err := core.ParseAmount(v)
		if err != nil {
			return core.Supplier{}, fieldError("defaultPrice", err)
		}
		s.DefaultPrice = &price
	}
	if v := p.Get("defaultCurrency"); v != "" {
		c, err := core.ParseCurrency(v)
		if err != nil {
			return core.Supplier{}, fieldError("defaultCurrency", err)
		}
		s.DefaultCurrency = &c
	}
	if err := s.Validate(); err != nil {
		return core.Supplier{}, err
	}
	return s, nil
}

// parseParticipantForm reads expectedPay and currency. The supplier comes
// from supplierID, or from the supplierId field when empty.
func parseParticipantForm(p *RequestBodyParser, supplierID string) (core.Participant, error) {
	if supplierID == "" {
		supplierID = p.Get("supplierId")
	}
	pay, err := optionalAmount(p, "expectedPay")
	if err != nil {
		return core.Participant{}, err
	}
	currency, err := currencyField(p, "currency")
	if err != nil {
		return core.Participant{}, err
	}
	part := core.Participant{
		Supplier:    core.Ref{ID: supplierID},
		ExpectedPay: pay,
		Currency:    currency,
	}
	if err := part.Validate(); err != nil {
		return core.Participant{}, err
	}
	return part, nil
}

// Payment form types.
const (
	paymentTypeGeneral = "general"
	paymentTypeLoan    = "loan"
)

// parsePaymentForm reads supplierId, amount, currency, type, method, note,
// the optional eventId and the optional date. A loan forces the Loan method
// and gets the default loan note when none was typed.
func parsePaymentForm(p *RequestBodyParser) (core.Payment, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Payment{}, fieldError("amount", err)
	}
	currency, err := currencyField(p, "currency")
	if err != nil {
		return core.Payment{}, err
	}

	pay := core.Payment{
		Supplier: core.Ref{ID: p.Get("supplierId")},
		Amount:   amount,
		Currency: currency,
		Note:     p.Get("note"),
	}

	switch typ := p.Get("type"); typ {
	case paymentTypeLoan:
		pay.Method = core.MethodLoan
		if pay.Note == "" {
			pay.Note = core.DefaultLoanNote
		}
	case "", paymentTypeGeneral:
		method := p.Get("method")
		if method == "" {
			method = string(core.MethodCash)
		}
		m, err := core.ParsePaymentMethod(method)
		if err != nil {
			return core.Payment{}, fieldError("method", err)
		}
		pay.Method = m
	default:
		return core.Payment{}, fmt.Errorf("%w: type %q", errInvalidInput, typ)
	}

	if id := p.Get("eventId"); id != "" {
		pay.Event = &core.Ref{ID: id}
	}
	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Payment{}, fieldError("date", err)
		}
		pay.Date = d
	} else {
		now := time.Now()
		pay.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	if err := pay.Validate(); err != nil {
		return core.Payment{}, err
	}
	return pay, nil
}
