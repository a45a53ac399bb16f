package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kaslot/internal/core"
	applog "kaslot/internal/log"
)

// eventView is one event card with its per-participant settlement state.
type eventView struct {
	core.Event
	Ledgers   []core.ParticipantLedger
	Available []core.Supplier
	Profit    core.Money
}

type eventMonth struct {
	Year   int
	Month  int
	Events []eventView
}

type eventsView struct {
	Months    []eventMonth
	Suppliers []core.Supplier
	// Total counts every loaded event, before the search filter.
	Total int
}

// handleEvents lists events grouped by month, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap := s.load(r.Context(), needEvents|needSuppliers|needPayments)
	p := newPage(r, "אירועים", "events")
	p.LoadFailed = snap.Failed

	view := eventsView{Suppliers: snap.Suppliers, Total: len(snap.Events)}
	for _, g := range core.GroupEventsByMonth(core.FilterEvents(snap.Events, p.Query)) {
		m := eventMonth{Year: g.Year, Month: g.Month}
		for _, ev := range g.Events {
			m.Events = append(m.Events, eventView{
				Event:     ev,
				Ledgers:   core.EventParticipantLedgers(ev, snap.Payments),
				Available: core.AvailableSuppliers(ev, snap.Suppliers),
				Profit:    ev.Profit(),
			})
		}
		view.Months = append(view.Months, m)
	}
	p.Data = view
	s.render(w, r, http.StatusOK, "events_page", p)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	o := outcome{entity: entityEvent, action: applog.OpCreate, back: backTo(r, "/events"), success: "האירוע נוסף"}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	ev, err := parseEventForm(p)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	created, err := s.backend.CreateEvent(r.Context(), ev)
	o.id = created.ID
	s.finish(w, r, o, err)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o := outcome{entity: entityEvent, action: applog.OpUpdate, id: id, back: backTo(r, "/events"), success: "האירוע עודכן"}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	ev, err := parseEventForm(p)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	_, err = s.backend.UpdateEvent(r.Context(), id, ev)
	s.finish(w, r, o, err)
}

// handleDeleteEvent removes the event; the backend cascades its
// participants and payments.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o := outcome{entity: entityEvent, action: applog.OpDelete, id: id, back: backTo(r, "/events"), success: "האירוע נמחק"}
	s.finish(w, r, o, s.backend.DeleteEvent(r.Context(), id))
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	o := outcome{entity: entityParticipant, action: applog.OpCreate, id: eventID, back: backTo(r, "/events"), success: "הספק נוסף לאירוע", alert: true}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	part, err := parseParticipantForm(p, "")
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	s.finish(w, r, o, s.backend.AddParticipant(r.Context(), eventID, part))
}

func (s *Server) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	o := outcome{entity: entityParticipant, action: applog.OpUpdate, id: eventID, back: backTo(r, "/events"), success: "פרטי הספק עודכנו", alert: true}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	part, err := parseParticipantForm(p, chi.URLParam(r, "supplierId"))
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	s.finish(w, r, o, s.backend.UpdateParticipant(r.Context(), eventID, part))
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	o := outcome{entity: entityParticipant, action: applog.OpDelete, id: eventID, back: backTo(r, "/events"), success: "הספק הוסר מהאירוע"}
	s.finish(w, r, o, s.backend.RemoveParticipant(r.Context(), eventID, chi.URLParam(r, "supplierId")))
}
