package core

import (
	"sort"
	"strconv"
	"strings"
)

// MonthBucket is one month of the income/expense chart.
type MonthBucket struct {
	Month    int // 1-12
	Income   Money
	Expenses Money
	Profit   Money
}

// BreakdownEntry is one supplier's share of the year's expected pay.
type BreakdownEntry struct {
	Label string
	Value Money
}

// ParseYear reads the selected year, falling back when s is empty or not a
// plausible year.
func ParseYear(s string, fallback int) int {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1900 || y > 9999 {
		return fallback
	}
	return y
}

// MonthlySeries buckets the events dated in year by calendar month. Amounts
// are summed regardless of currency.
func MonthlySeries(events []Event, year int) [12]MonthBucket {
	var series [12]MonthBucket
	for i := range series {
		series[i].Month = i + 1
	}
	for _, ev := range events {
		if ev.Date.IsZero() || ev.Date.Year() != year {
			continue
		}
		b := &series[ev.Date.Month()-1]
		b.Income = b.Income.Add(ev.TotalPrice)
		b.Expenses = b.Expenses.Add(ev.ExpectedTotal())
	}
	for i := range series {
		series[i].Profit = series[i].Income.Sub(series[i].Expenses)
	}
	return series
}

// SupplierBreakdown totals expected pay per supplier (keyed by role and name)
// across the events of year, largest first.
func SupplierBreakdown(events []Event, year int) []BreakdownEntry {
	totals := make(map[string]Money)
	for _, ev := range events {
		if ev.Date.IsZero() || ev.Date.Year() != year {
			continue
		}
		for _, p := range ev.Participants {
			label := breakdownLabel(p.Supplier)
			totals[label] = totals[label].Add(p.ExpectedPay)
		}
	}

	out := make([]BreakdownEntry, 0, len(totals))
	for label, v := range totals {
		out = append(out, BreakdownEntry{Label: label, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value.Cents != out[j].Value.Cents {
			return out[i].Value.Cents > out[j].Value.Cents
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func breakdownLabel(r Ref) string {
	switch {
	case r.Name == "":
		return r.ID
	case r.Role == "":
		return r.Name
	default:
		return r.Role + " - " + r.Name
	}
}

// YearsOf returns the distinct event years, newest first, always including current.
func YearsOf(events []Event, current int) []int {
	seen := map[int]bool{current: true}
	years := []int{current}
	for _, ev := range events {
		if ev.Date.IsZero() {
			continue
		}
		if y := ev.Date.Year(); !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
