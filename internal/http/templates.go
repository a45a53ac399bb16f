package http

import (
	"html/template"
	"net/http"
	"time"
	"unicode/utf8"

	"kaslot/internal/core"
)

// page is the data every full page template receives.
type page struct {
	Title  string
	Active string
	Query  string
	// Error comes from a failed non-HTMX form post (?error=).
	Error string
	// LoadFailed shows the non-blocking "could not load" banner.
	LoadFailed bool
	Data       any
}

const maxFlashLen = 300

func newPage(r *http.Request, title, active string) page {
	q := r.URL.Query()
	msg := q.Get("error")
	if len(msg) > maxFlashLen {
		msg = msg[:maxFlashLen]
	}
	return page{
		Title:  title,
		Active: active,
		Query:  sanitizeInput(q.Get("q")),
		Error:  sanitizeInput(msg),
	}
}

// moneyLine is one currency's amount within a Totals display.
type moneyLine struct {
	Value    core.Money
	Currency core.Currency
}

// totalsLines lists the non-zero currencies of t, or a zero Shekel line.
func totalsLines(t core.Totals) []moneyLine {
	var out []moneyLine
	for _, c := range core.Currencies() {
		if v := t.Get(c); !v.IsZero() {
			out = append(out, moneyLine{Value: v, Currency: c})
		}
	}
	if len(out) == 0 {
		out = append(out, moneyLine{Currency: core.Shekel})
	}
	return out
}

// generalMethods are the methods offered for a regular payment; Loan is
// picked through the payment type instead.
func generalMethods() []core.PaymentMethod {
	var out []core.PaymentMethod
	for _, m := range core.PaymentMethods() {
		if m != core.MethodLoan {
			out = append(out, m)
		}
	}
	return out
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(r)
}

// recordForm feeds the shared create/edit forms. A nil record renders an
// empty create form.
type recordForm[T any] struct {
	Action string
	Record T
	Edit   bool
}

func newRecordForm[T any](action string, rec any) recordForm[T] {
	f := recordForm[T]{Action: action}
	if v, ok := rec.(T); ok {
		f.Record = v
		f.Edit = true
	}
	return f
}

type searchBox struct {
	Action string
	Query  string
}

// currencyPick feeds the shared currency select.
type currencyPick struct {
	Name     string
	Selected string
	Optional bool
}

// pickCurrency accepts a Currency or a *Currency. A required select with
// nothing chosen preselects Shekel.
func pickCurrency(name string, selected any, optional bool) currencyPick {
	pick := currencyPick{Name: name, Optional: optional}
	switch v := selected.(type) {
	case core.Currency:
		pick.Selected = v.String()
	case *core.Currency:
		if v != nil {
			pick.Selected = v.String()
		}
	}
	if pick.Selected == "" && !optional {
		pick.Selected = core.Shekel.String()
	}
	return pick
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":       formatMoney,
		"amount":      formatAmount,
		"inputAmount": inputAmount,
		"abs": func(m core.Money) core.Money {
			if m.IsNegative() {
				return core.Money{Cents: -m.Cents}
			}
			return m
		},
		"totalsLines":    totalsLines,
		"currencies":     core.Currencies,
		"methods":        core.PaymentMethods,
		"generalMethods": generalMethods,
		"monthName":      monthName,
		"initial":        initial,
		"search":         func(action, q string) searchBox { return searchBox{Action: action, Query: q} },
		"pickCurrency":   pickCurrency,
		"eventForm":      newRecordForm[core.Event],
		"supplierForm":   newRecordForm[core.Supplier],
		"today":          func() string { return time.Now().Format("2006-01-02") },
		"isLoan":         func(m core.PaymentMethod) bool { return m == core.MethodLoan },
	}
}
