package rest

import "kaslot/internal/core"

// Request bodies. They carry references as bare ids, which is what the
// backend expects on writes.
type (
	eventRequest struct {
		Title       string        `json:"title"`
		Date        core.Date     `json:"date"`
		Location    string        `json:"location"`
		PhoneNumber string        `json:"phone_number"`
		TotalPrice  core.Money    `json:"totalPrice"`
		Currency    core.Currency `json:"currency"`
	}

	participantRequest struct {
		SupplierID  string        `json:"supplierId"`
		ExpectedPay core.Money    `json:"expectedPay"`
		Currency    core.Currency `json:"currency"`
	}

	participantUpdate struct {
		ExpectedPay core.Money    `json:"expectedPay"`
		Currency    core.Currency `json:"currency"`
	}

	paymentRequest struct {
		SupplierID string             `json:"supplierId"`
		EventID    string             `json:"eventId,omitempty"`
		Amount     core.Money         `json:"amount"`
		Currency   core.Currency      `json:"currency"`
		Method     core.PaymentMethod `json:"method"`
		Note       string             `json:"note"`
		Date       *core.Date         `json:"date,omitempty"`
	}
)

func newEventRequest(ev core.Event) eventRequest {
	return eventRequest{
		Title:       ev.Title,
		Date:        ev.Date,
		Location:    ev.Location,
		PhoneNumber: ev.PhoneNumber,
		TotalPrice:  ev.TotalPrice,
		Currency:    ev.Currency,
	}
}

// newPaymentRequest leaves the date out when unset so the backend stamps it.
func newPaymentRequest(p core.Payment) paymentRequest {
	req := paymentRequest{
		SupplierID: p.Supplier.ID,
		EventID:    p.EventID(),
		Amount:     p.Amount,
		Currency:   p.Currency,
		Method:     p.Method,
		Note:       p.Note,
	}
	if !p.Date.IsZero() {
		d := p.Date
		req.Date = &d
	}
	return req
}
