package core

// DashboardSummary holds the headline totals of the dashboard.
type DashboardSummary struct {
	TotalEventsPrice Totals `json:"totalEventsPrice"`
	TotalProfit      Totals `json:"totalProfit"`
	TotalOwed        Totals `json:"totalOwed"`
	TotalEvents      int    `json:"totalEvents"`
}

// ComputeSummary derives the dashboard totals from the raw collections. The
// remote backend computes the same figures server side.
func ComputeSummary(events []Event, suppliers []Supplier, payments []Payment) DashboardSummary {
	var sum DashboardSummary
	var expected Totals
	for _, ev := range events {
		sum.TotalEventsPrice.Add(ev.Currency, ev.TotalPrice)
		for _, p := range ev.Participants {
			expected.Add(p.Currency, p.ExpectedPay)
		}
	}
	sum.TotalProfit = sum.TotalEventsPrice.Sub(expected)
	sum.TotalOwed = TotalOwed(SupplierBalances(suppliers, events, payments))
	sum.TotalEvents = len(events)
	return sum
}

// ReportEvent is one participation of the reported supplier.
type ReportEvent struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Date        Date     `json:"date"`
	Location    string   `json:"location,omitempty"`
	ExpectedPay Money    `json:"expectedPay"`
	Currency    Currency `json:"currency"`
}

// SupplierReport is the pre-joined, shareable account of one supplier.
type SupplierReport struct {
	Supplier      Supplier      `json:"supplier"`
	Events        []ReportEvent `json:"events"`
	Payments      []Payment     `json:"payments"`
	TotalExpected Totals        `json:"totalExpected"`
	TotalPaid     Totals        `json:"totalPaid"`
}

// Balance is expected minus paid per currency.
func (r SupplierReport) Balance() Totals {
	return r.TotalExpected.Sub(r.TotalPaid)
}

func (r SupplierReport) ActiveCurrencies() []Currency {
	return ActiveCurrencies(r.TotalExpected, r.TotalPaid)
}

func (r SupplierReport) IsEmpty() bool {
	return len(r.Events) == 0 && len(r.Payments) == 0
}

// BuildSupplierReport joins the collections the way the backend report
// endpoint does. Payment event references are populated with titles.
func BuildSupplierReport(supplier Supplier, events []Event, payments []Payment) SupplierReport {
	r := SupplierReport{Supplier: supplier, Events: []ReportEvent{}, Payments: []Payment{}}
	titles := make(map[string]string, len(events))
	for _, ev := range events {
		titles[ev.ID] = ev.Title
		p, ok := ev.Participant(supplier.ID)
		if !ok {
			continue
		}
		r.Events = append(r.Events, ReportEvent{
			ID:          ev.ID,
			Title:       ev.Title,
			Date:        ev.Date,
			Location:    ev.Location,
			ExpectedPay: p.ExpectedPay,
			Currency:    p.Currency,
		})
		r.TotalExpected.Add(p.Currency, p.ExpectedPay)
	}
	for _, pay := range payments {
		if pay.Supplier.ID != supplier.ID {
			continue
		}
		if pay.Event != nil {
			ref := *pay.Event
			if ref.Title == "" {
				ref.Title = titles[ref.ID]
			}
			pay.Event = &ref
		}
		pay.Supplier = supplier.RefTo()
		r.Payments = append(r.Payments, pay)
		r.TotalPaid.Add(pay.Currency, pay.Amount)
	}
	return r
}
