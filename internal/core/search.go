package core

import (
	"sort"
	"strings"
)

// MonthGroup is a calendar month of events for the events list.
type MonthGroup struct {
	Year   int
	Month  int
	Events []Event
}

// FilterEvents keeps events whose title, location or short date contains q,
// case-insensitively. An empty query keeps everything.
func FilterEvents(events []Event, q string) []Event {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return events
	}
	var out []Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), q) ||
			strings.Contains(strings.ToLower(ev.Location), q) ||
			strings.Contains(ev.Date.Short(), q) {
			out = append(out, ev)
		}
	}
	return out
}

// FilterSuppliers keeps suppliers whose name or role contains q.
func FilterSuppliers(suppliers []Supplier, q string) []Supplier {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return suppliers
	}
	var out []Supplier
	for _, s := range suppliers {
		if supplierMatches(s, q) {
			out = append(out, s)
		}
	}
	return out
}

// FilterBalances applies the supplier search to balance records.
func FilterBalances(balances []SupplierBalance, q string) []SupplierBalance {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return balances
	}
	var out []SupplierBalance
	for _, b := range balances {
		if supplierMatches(b.Supplier, q) {
			out = append(out, b)
		}
	}
	return out
}

func supplierMatches(s Supplier, q string) bool {
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Role), q)
}

// GroupEventsByMonth sorts events newest first and groups them by calendar
// month. Events without a date are not listed.
func GroupEventsByMonth(events []Event) []MonthGroup {
	sorted := make([]Event, 0, len(events))
	for _, ev := range events {
		if !ev.Date.IsZero() {
			sorted = append(sorted, ev)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})

	var groups []MonthGroup
	for _, ev := range sorted {
		y, m := ev.Date.Year(), ev.Date.Month()
		if n := len(groups); n > 0 && groups[n-1].Year == y && groups[n-1].Month == m {
			groups[n-1].Events = append(groups[n-1].Events, ev)
			continue
		}
		groups = append(groups, MonthGroup{Year: y, Month: m, Events: []Event{ev}})
	}
	return groups
}

// AvailableSuppliers returns the suppliers not yet attached to ev.
func AvailableSuppliers(ev Event, suppliers []Supplier) []Supplier {
	var out []Supplier
	for _, s := range suppliers {
		if _, attached := ev.Participant(s.ID); !attached {
			out = append(out, s)
		}
	}
	return out
}

// PopulateReferences fills names into bare supplier and event references so
// views and breakdown labels do not depend on the backend populating them.
func PopulateReferences(events []Event, suppliers []Supplier, payments []Payment) {
	byID := make(map[string]Supplier, len(suppliers))
	for _, s := range suppliers {
		byID[s.ID] = s
	}
	titles := make(map[string]string, len(events))
	for i := range events {
		titles[events[i].ID] = events[i].Title
		for j := range events[i].Participants {
			ref := &events[i].Participants[j].Supplier
			if s, ok := byID[ref.ID]; ok && ref.Name == "" {
				*ref = s.RefTo()
			}
		}
	}
	for i := range payments {
		ref := &payments[i].Supplier
		if s, ok := byID[ref.ID]; ok && ref.Name == "" {
			*ref = s.RefTo()
		}
		if ev := payments[i].Event; ev != nil && ev.Title == "" {
			if t, ok := titles[ev.ID]; ok {
				ev.Title = t
			}
		}
	}
}
