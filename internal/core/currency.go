package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Currency is one of the fixed set of currencies the business trades in.
// The zero value is Shekel, which is also what the backend assumes when a
// record carries no currency.
type Currency uint8

const (
	Shekel Currency = iota
	Dollar
	Euro
	numCurrencies
)

var (
	currencyNames   = [numCurrencies]string{"Shekel", "Dollar", "Euro"}
	currencySymbols = [numCurrencies]string{"₪", "$", "€"}
	currencyLabels  = [numCurrencies]string{"שקל", "דולר", "יורו"}
)

// Currencies lists all currencies in display order.
func Currencies() []Currency {
	return []Currency{Shekel, Dollar, Euro}
}

// ParseCurrency maps a wire name to a Currency. An empty string means Shekel.
func ParseCurrency(s string) (Currency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Shekel, nil
	}
	for i, name := range currencyNames {
		if strings.EqualFold(s, name) {
			return Currency(i), nil
		}
	}
	return Shekel, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
}

func (c Currency) Valid() bool { return c < numCurrencies }

func (c Currency) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Currency(%d)", uint8(c))
	}
	return currencyNames[c]
}

func (c Currency) Symbol() string {
	if !c.Valid() {
		return currencySymbols[Shekel]
	}
	return currencySymbols[c]
}

// Label is the Hebrew currency name.
func (c Currency) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return currencyLabels[c]
}

func (c Currency) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrInvalidCurrency
	}
	return []byte(currencyNames[c]), nil
}

// UnmarshalText decodes backend records. Names outside the enum fall back
// to Shekel so one odd record does not fail a whole list.
func (c *Currency) UnmarshalText(b []byte) error {
	parsed, _ := ParseCurrency(string(b))
	*c = parsed
	return nil
}

// Totals holds one amount per currency.
type Totals [numCurrencies]Money

func (t Totals) Get(c Currency) Money {
	if !c.Valid() {
		return Money{}
	}
	return t[c]
}

func (t *Totals) Add(c Currency, m Money) {
	if !c.Valid() {
		return
	}
	t[c] = t[c].Add(m)
}

// Sub returns t - o per currency.
func (t Totals) Sub(o Totals) Totals {
	var out Totals
	for i := range t {
		out[i] = t[i].Sub(o[i])
	}
	return out
}

func (t Totals) AnyPositive() bool {
	for _, m := range t {
		if m.IsPositive() {
			return true
		}
	}
	return false
}

func (t Totals) AnyNegative() bool {
	for _, m := range t {
		if m.IsNegative() {
			return true
		}
	}
	return false
}

func (t Totals) IsZero() bool {
	return t == Totals{}
}

// ActiveCurrencies returns the currencies in which anything was expected or paid.
func ActiveCurrencies(expected, paid Totals) []Currency {
	var out []Currency
	for _, c := range Currencies() {
		if expected[c].IsPositive() || paid[c].IsPositive() {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON writes {"Shekel":..,"Dollar":..,"Euro":..} in a stable order.
func (t Totals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range Currencies() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%s", currencyNames[c], t[c].Decimal().String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a currency-keyed object. Unknown currencies are ignored.
func (t *Totals) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Totals{}
		return nil
	}
	var raw map[string]Money
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode totals: %w", err)
	}
	var out Totals
	for k, v := range raw {
		c, err := ParseCurrency(k)
		if err != nil || k == "" {
			continue
		}
		out[c] = v
	}
	*t = out
	return nil
}
