package http

import (
	"net/http"
	"sort"
	"time"

	"kaslot/internal/core"
)

// chartRow is one month of the income/expenses chart with bar widths.
type chartRow struct {
	core.MonthBucket
	IncomePct   int
	ExpensesPct int
}

// breakdownRow is one supplier slice of the yearly expense breakdown.
type breakdownRow struct {
	core.BreakdownEntry
	Pct int
}

type dashboardView struct {
	Summary   core.DashboardSummary
	Year      int
	Years     []int
	Months    []chartRow
	Breakdown []breakdownRow
	// Empty means no event is dated in the selected year.
	Empty bool
}

// handleDashboard renders the headline totals and the yearly charts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)
	snap := s.load(r.Context(), needSummary|needEvents|needSuppliers)

	view := dashboardView{
		Summary: snap.Summary,
		Year:    year,
		Years:   core.YearsOf(snap.Events, time.Now().Year()),
	}
	if !containsYear(view.Years, year) {
		view.Years = append(view.Years, year)
		sort.Sort(sort.Reverse(sort.IntSlice(view.Years)))
	}

	series := core.MonthlySeries(snap.Events, year)
	var max core.Money
	for _, b := range series {
		if b.Income.Cents > max.Cents {
			max = b.Income
		}
		if b.Expenses.Cents > max.Cents {
			max = b.Expenses
		}
	}
	view.Empty = max.IsZero()
	for _, b := range series {
		view.Months = append(view.Months, chartRow{
			MonthBucket: b,
			IncomePct:   percent(b.Income, max),
			ExpensesPct: percent(b.Expenses, max),
		})
	}

	breakdown := core.SupplierBreakdown(snap.Events, year)
	var top core.Money
	for _, e := range breakdown {
		if e.Value.Cents > top.Cents {
			top = e.Value
		}
	}
	for _, e := range breakdown {
		view.Breakdown = append(view.Breakdown, breakdownRow{BreakdownEntry: e, Pct: percent(e.Value, top)})
	}

	p := newPage(r, "דשבורד", "dashboard")
	p.LoadFailed = snap.Failed
	p.Data = view
	s.render(w, r, http.StatusOK, "dashboard_page", p)
}

func containsYear(years []int, y int) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}
