package http

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"kaslot/internal/core"
	applog "kaslot/internal/log"
)

// balanceView is one supplier card of the payments page.
type balanceView struct {
	core.SupplierBalance
	ShareURL string
}

type paymentsView struct {
	Balances []balanceView
	// Events feeds the optional event select of the payment form, newest first.
	Events    []core.Event
	TotalOwed core.Totals
	Total     int
}

// handlePayments lists every supplier with its balance and payment history.
func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	snap := s.load(r.Context(), needEvents|needSuppliers|needPayments)
	p := newPage(r, "תשלומים", "payments")
	p.LoadFailed = snap.Failed

	balances := core.SupplierBalances(snap.Suppliers, snap.Events, snap.Payments)
	view := paymentsView{
		TotalOwed: core.TotalOwed(balances),
		Total:     len(balances),
	}
	for _, b := range core.FilterBalances(balances, p.Query) {
		view.Balances = append(view.Balances, balanceView{
			SupplierBalance: b,
			ShareURL:        shareURL(s.publicBaseURL, r, b.Supplier.ID),
		})
	}

	view.Events = append([]core.Event(nil), snap.Events...)
	sort.SliceStable(view.Events, func(i, j int) bool {
		return view.Events[i].Date.After(view.Events[j].Date.Time)
	})
	p.Data = view
	s.render(w, r, http.StatusOK, "payments_page", p)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	o := outcome{entity: entityPayment, action: applog.OpCreate, back: backTo(r, "/payments"), success: "התשלום נרשם"}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	pay, err := parsePaymentForm(p)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	if pay.Method == core.MethodLoan {
		o.success = "ההלוואה נרשמה"
	}
	created, err := s.backend.CreatePayment(r.Context(), pay)
	o.id = created.ID
	s.finish(w, r, o, err)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o := outcome{entity: entityPayment, action: applog.OpDelete, id: id, back: backTo(r, "/payments"), success: "התשלום נמחק"}
	s.finish(w, r, o, s.backend.DeletePayment(r.Context(), id))
}
