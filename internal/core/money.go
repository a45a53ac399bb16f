// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and the decimal wire representation.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (agorot, cents) of some currency.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a positive decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to the nearest cent. Returns an error for invalid formats, negative
// values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// ParseAmount is like ParseDecimalToCents but accepts zero, which is a valid
// expected pay or event price.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return Money{}, ErrInvalidAmount
		}
	}
	if dots > 1 || s == "." {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.New(1, 17)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) IsPositive() bool { return m.Cents > 0 }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// Decimal returns the exact decimal value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the value in major units for display and charting.
// Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount in major units without trailing zeros ("1500", "12.5").
func (m Money) String() string {
	return m.Decimal().String()
}

// MarshalJSON writes the amount as a bare JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return fmt.Errorf("%w: %s", err, b)
	}
	*m = parsed
	return nil
}
