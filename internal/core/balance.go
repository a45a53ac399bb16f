package core

// SupplierBalance is the per-currency account of one supplier: what the
// supplier is owed across all events, what has been paid, and the difference.
type SupplierBalance struct {
	Supplier      Supplier
	TotalExpected Totals
	TotalPaid     Totals
	Balance       Totals
	Payments      []Payment
	// HasDebt means something is still owed to the supplier in some currency.
	HasDebt bool
	// HasCredit means the supplier was overpaid (or advanced a loan) in some currency.
	HasCredit bool
}

// ActiveCurrencies returns the currencies with any expected or paid amount.
func (b SupplierBalance) ActiveCurrencies() []Currency {
	return ActiveCurrencies(b.TotalExpected, b.TotalPaid)
}

// SupplierBalances folds every participant entry and payment into one
// balance record per supplier, in supplier order. Loan payments count like
// any other payment. Entries referencing unknown suppliers are ignored.
func SupplierBalances(suppliers []Supplier, events []Event, payments []Payment) []SupplierBalance {
	out := make([]SupplierBalance, len(suppliers))
	byID := make(map[string]*SupplierBalance, len(suppliers))
	for i, s := range suppliers {
		out[i].Supplier = s
		byID[s.ID] = &out[i]
	}

	for _, ev := range events {
		for _, p := range ev.Participants {
			if b, ok := byID[p.Supplier.ID]; ok {
				b.TotalExpected.Add(p.Currency, p.ExpectedPay)
			}
		}
	}

	for _, pay := range payments {
		if b, ok := byID[pay.Supplier.ID]; ok {
			b.TotalPaid.Add(pay.Currency, pay.Amount)
			b.Payments = append(b.Payments, pay)
		}
	}

	for i := range out {
		b := &out[i]
		b.Balance = b.TotalExpected.Sub(b.TotalPaid)
		b.HasDebt = b.Balance.AnyPositive()
		b.HasCredit = b.Balance.AnyNegative()
	}
	return out
}

// TotalOwed sums the positive balances per currency across suppliers.
func TotalOwed(balances []SupplierBalance) Totals {
	var owed Totals
	for _, b := range balances {
		for _, c := range Currencies() {
			if v := b.Balance[c]; v.IsPositive() {
				owed.Add(c, v)
			}
		}
	}
	return owed
}

// ParticipantLedger is the settlement state of one participant within a
// single event, counting only payments tied to that event.
type ParticipantLedger struct {
	Participant Participant
	Paid        Money
	Balance     Money
}

// EventParticipantLedgers pairs each participant of ev with the payments
// recorded against ev for that supplier.
func EventParticipantLedgers(ev Event, payments []Payment) []ParticipantLedger {
	paid := make(map[string]Money)
	for _, pay := range payments {
		if id := pay.EventID(); id != "" && id == ev.ID {
			paid[pay.Supplier.ID] = paid[pay.Supplier.ID].Add(pay.Amount)
		}
	}
	out := make([]ParticipantLedger, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		got := paid[p.Supplier.ID]
		out = append(out, ParticipantLedger{
			Participant: p,
			Paid:        got,
			Balance:     p.ExpectedPay.Sub(got),
		})
	}
	return out
}
