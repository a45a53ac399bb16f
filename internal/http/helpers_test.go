package http

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kaslot/internal/core"
	"kaslot/internal/store/rest"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0"},
		{150000, "1,500"},
		{1250, "12.5"},
		{99999, "999.99"},
		{-123456789, "-1,234,567.89"},
		{100000000, "1,000,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatAmount(core.Money{Cents: tt.cents}); got != tt.want {
				t.Errorf("formatAmount(%d) = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	if got := formatMoney(core.Money{Cents: 150000}, core.Shekel); got != "₪1,500" {
		t.Errorf("got %q", got)
	}
	if got := formatMoney(core.Money{Cents: -2050}, core.Dollar); got != "-$20.5" {
		t.Errorf("got %q", got)
	}
}

func TestShareURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		setup func(r *http.Request)
		want  string
	}{
		{
			name: "configured base",
			base: "https://kaslot.example/",
			want: "https://kaslot.example/supplier-report/s1",
		},
		{
			name: "request host",
			want: "http://example.com/supplier-report/s1",
		},
		{
			name:  "forwarded https",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") },
			want:  "https://example.com/supplier-report/s1",
		},
		{
			name:  "tls",
			setup: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want:  "https://example.com/supplier-report/s1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/payments", nil)
			if tt.setup != nil {
				tt.setup(r)
			}
			if got := shareURL(tt.base, r, "s1"); got != tt.want {
				t.Errorf("shareURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackTo(t *testing.T) {
	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"no referer", "", "/events"},
		{"same host", "http://example.com/payments?q=dana", "/payments?q=dana"},
		{"drops error", "http://example.com/events?error=x", "/events"},
		{"foreign host", "http://evil.example/steal", "/events"},
		{"relative path", "/suppliers", "/suppliers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/events", nil)
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}
			if got := backTo(r, "/events"); got != tt.want {
				t.Errorf("backTo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithError(t *testing.T) {
	if got := withError("/events", "bad input"); got != "/events?error=bad+input" {
		t.Errorf("got %q", got)
	}
	if got := withError("/events?q=a", "x"); got != "/events?q=a&error=x" {
		t.Errorf("got %q", got)
	}
}

func TestPercent(t *testing.T) {
	max := core.Money{Cents: 1000}
	tests := []struct {
		v    int64
		want int
	}{
		{0, 0},
		{1, 2},
		{500, 50},
		{1000, 100},
		{2000, 100},
	}
	for _, tt := range tests {
		if got := percent(core.Money{Cents: tt.v}, max); got != tt.want {
			t.Errorf("percent(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
	if got := percent(core.Money{Cents: 5}, core.Money{}); got != 0 {
		t.Errorf("zero max: got %d", got)
	}
}

func TestMonthName(t *testing.T) {
	if monthName(1) != "ינואר" || monthName(12) != "דצמבר" || monthName(13) != "" {
		t.Error("unexpected month names")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("event e1: %w", core.ErrNotFound), http.StatusNotFound},
		{"upstream 404", &rest.APIError{Status: http.StatusNotFound}, http.StatusNotFound},
		{"duplicate", core.ErrDuplicateParticipant, http.StatusConflict},
		{"validation", fmt.Errorf("amount: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{"bad form", errInvalidInput, http.StatusUnprocessableEntity},
		{"upstream failure", &rest.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParticipantAlert(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", fmt.Errorf("%w: %w", core.ErrDuplicateParticipant, &rest.APIError{Status: 409, Message: "Supplier already added"}), "Supplier already added"},
		{"local duplicate", core.ErrDuplicateParticipant, "הספק כבר משתתף באירוע"},
		{"no message", &rest.APIError{Status: 500}, "Error adding/updating supplier"},
		{"other", errors.New("boom"), "Error adding/updating supplier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := participantAlert(tt.err); got != tt.want {
				t.Errorf("participantAlert = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickCurrency(t *testing.T) {
	dollar := core.Dollar
	var none *core.Currency
	tests := []struct {
		name     string
		selected any
		optional bool
		want     string
	}{
		{"value", core.Euro, false, "Euro"},
		{"pointer", &dollar, true, "Dollar"},
		{"nil optional", none, true, ""},
		{"nil required", nil, false, "Shekel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickCurrency("c", tt.selected, tt.optional).Selected; got != tt.want {
				t.Errorf("Selected = %q, want %q", got, tt.want)
			}
		})
	}
}
