package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"kaslot/internal/core"
)

// parseYear reads the chart year from the query, defaulting to the current year.
func parseYear(r *http.Request) int {
	return core.ParseYear(r.URL.Query().Get("year"), time.Now().Year())
}

// formatAmount renders an amount with thousands separators and no trailing
// zero fraction, the way the dashboard shows money ("1,500", "12.5").
func formatAmount(m core.Money) string {
	s := m.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		return "-" + out
	}
	return out
}

// formatMoney prefixes the currency symbol: "₪1,500".
func formatMoney(m core.Money, c core.Currency) string {
	if m.IsNegative() {
		return "-" + c.Symbol() + formatAmount(core.Money{Cents: -m.Cents})
	}
	return c.Symbol() + formatAmount(m)
}

// inputAmount renders an amount for an <input type="number"> value.
func inputAmount(m core.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.String()
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// shareURL builds the public report link of a supplier. An empty base uses
// the request host.
func shareURL(base string, r *http.Request, supplierID string) string {
	path := "/supplier-report/" + url.PathEscape(supplierID)
	if base != "" {
		return strings.TrimRight(base, "/") + path
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

// withError appends an error message to a redirect target.
func withError(target, msg string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "error=" + url.QueryEscape(msg)
}

// backTo returns the local page a form post should return to: the referer
// path when it is one of ours, otherwise fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	q := u.Query()
	q.Del("error")
	if enc := q.Encode(); enc != "" {
		return u.Path + "?" + enc
	}
	return u.Path
}

var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// monthName returns the Hebrew name of month 1-12.
func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return hebrewMonths[month-1]
}

// percent scales v against max into 0-100, keeping non-zero values visible.
func percent(v, max core.Money) int {
	if max.Cents <= 0 || v.Cents <= 0 {
		return 0
	}
	p := int((v.Cents*100 + max.Cents/2) / max.Cents)
	if p < 2 {
		p = 2
	}
	if p > 100 {
		p = 100
	}
	return p
}
