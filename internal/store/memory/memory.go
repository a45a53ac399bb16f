// Package memory is an in-process backend for development and tests. State
// lives behind a mutex and can be seeded from a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"kaslot/internal/core"
)

// Seed is the on-disk shape of a seed file.
type Seed struct {
	Suppliers []core.Supplier `json:"suppliers"`
	Events    []core.Event    `json:"events"`
	Payments  []core.Payment  `json:"payments"`
}

type Store struct {
	mu        sync.Mutex
	suppliers []core.Supplier
	events    []core.Event
	payments  []core.Payment
	newID     func() string
	now       func() time.Time
}

func New() *Store {
	return &Store{
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// NewFromSeed loads the given records. Records without an id get one.
func NewFromSeed(seed Seed) *Store {
	s := New()
	for _, sup := range seed.Suppliers {
		if sup.ID == "" {
			sup.ID = s.newID()
		}
		s.suppliers = append(s.suppliers, sup)
	}
	for _, ev := range seed.Events {
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		ev.Participants = cloneParticipants(ev.Participants)
		s.events = append(s.events, ev)
	}
	for _, p := range seed.Payments {
		if p.ID == "" {
			p.ID = s.newID()
		}
		s.payments = append(s.payments, p)
	}
	return s
}

// NewFromFile seeds the store from a JSON file. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return NewFromSeed(seed), nil
}

func (s *Store) Ping(context.Context) error { return nil }

// ListEvents returns copies of the events with supplier references populated.
func (s *Store) ListEvents(_ context.Context) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.eventsCopy()
	core.PopulateReferences(out, s.suppliers, nil)
	return out, nil
}

func (s *Store) CreateEvent(_ context.Context, ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.newID()
	ev.Participants = []core.Participant{}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *Store) UpdateEvent(_ context.Context, id string, ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		return core.Event{}, fmt.Errorf("event %s: %w", id, core.ErrNotFound)
	}
	ev.ID = id
	ev.Participants = s.events[i].Participants
	s.events[i] = ev
	ev.Participants = cloneParticipants(ev.Participants)
	return ev, nil
}

// DeleteEvent removes the event and every payment recorded against it.
func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		return fmt.Errorf("event %s: %w", id, core.ErrNotFound)
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.payments = filterPayments(s.payments, func(p core.Payment) bool { return p.EventID() != id })
	return nil
}

func (s *Store) AddParticipant(_ context.Context, eventID string, p core.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(eventID)
	if i < 0 {
		return fmt.Errorf("event %s: %w", eventID, core.ErrNotFound)
	}
	if s.supplierIndex(p.Supplier.ID) < 0 {
		return fmt.Errorf("supplier %s: %w", p.Supplier.ID, core.ErrNotFound)
	}
	if _, ok := s.events[i].Participant(p.Supplier.ID); ok {
		return core.ErrDuplicateParticipant
	}
	p.Supplier = core.Ref{ID: p.Supplier.ID}
	s.events[i].Participants = append(s.events[i].Participants, p)
	return nil
}

// UpdateParticipant changes the expected pay and currency of an existing participant.
func (s *Store) UpdateParticipant(_ context.Context, eventID string, p core.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(eventID)
	if i < 0 {
		return fmt.Errorf("event %s: %w", eventID, core.ErrNotFound)
	}
	for j := range s.events[i].Participants {
		cur := &s.events[i].Participants[j]
		if cur.Supplier.ID == p.Supplier.ID {
			cur.ExpectedPay = p.ExpectedPay
			cur.Currency = p.Currency
			return nil
		}
	}
	return fmt.Errorf("participant %s: %w", p.Supplier.ID, core.ErrNotFound)
}

func (s *Store) RemoveParticipant(_ context.Context, eventID, supplierID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(eventID)
	if i < 0 {
		return fmt.Errorf("event %s: %w", eventID, core.ErrNotFound)
	}
	parts := s.events[i].Participants
	for j := range parts {
		if parts[j].Supplier.ID == supplierID {
			s.events[i].Participants = append(parts[:j], parts[j+1:]...)
			return nil
		}
	}
	return fmt.Errorf("participant %s: %w", supplierID, core.ErrNotFound)
}

func (s *Store) ListSuppliers(_ context.Context) ([]core.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Supplier(nil), s.suppliers...), nil
}

func (s *Store) CreateSupplier(_ context.Context, sup core.Supplier) (core.Supplier, error) {
	if err := sup.Validate(); err != nil {
		return core.Supplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sup.ID = s.newID()
	s.suppliers = append(s.suppliers, sup)
	return sup, nil
}

func (s *Store) UpdateSupplier(_ context.Context, id string, sup core.Supplier) (core.Supplier, error) {
	if err := sup.Validate(); err != nil {
		return core.Supplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.supplierIndex(id)
	if i < 0 {
		return core.Supplier{}, fmt.Errorf("supplier %s: %w", id, core.ErrNotFound)
	}
	sup.ID = id
	s.suppliers[i] = sup
	return sup, nil
}

// DeleteSupplier removes the supplier, its participations and its payments.
func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.supplierIndex(id)
	if i < 0 {
		return fmt.Errorf("supplier %s: %w", id, core.ErrNotFound)
	}
	s.suppliers = append(s.suppliers[:i], s.suppliers[i+1:]...)
	for e := range s.events {
		var kept []core.Participant
		for _, p := range s.events[e].Participants {
			if p.Supplier.ID != id {
				kept = append(kept, p)
			}
		}
		s.events[e].Participants = kept
	}
	s.payments = filterPayments(s.payments, func(p core.Payment) bool { return p.Supplier.ID != id })
	return nil
}

// ListPayments returns the payments, newest first, with references populated.
func (s *Store) ListPayments(_ context.Context) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Payment, len(s.payments))
	for i := range s.payments {
		out[len(out)-1-i] = clonePayment(s.payments[i])
	}
	core.PopulateReferences(s.eventsCopy(), s.suppliers, out)
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.supplierIndex(p.Supplier.ID) < 0 {
		return core.Payment{}, fmt.Errorf("supplier %s: %w", p.Supplier.ID, core.ErrNotFound)
	}
	if id := p.EventID(); id != "" && s.eventIndex(id) < 0 {
		return core.Payment{}, fmt.Errorf("event %s: %w", id, core.ErrNotFound)
	}
	if p.Date.IsZero() {
		now := s.now().UTC()
		p.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	p.ID = s.newID()
	p.Supplier = core.Ref{ID: p.Supplier.ID}
	if id := p.EventID(); id != "" {
		p.Event = &core.Ref{ID: id}
	} else {
		p.Event = nil
	}
	s.payments = append(s.payments, p)
	return clonePayment(p), nil
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		if s.payments[i].ID == id {
			s.payments = append(s.payments[:i], s.payments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
}

// Summary computes the dashboard totals the way the remote backend does.
func (s *Store) Summary(_ context.Context) (core.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeSummary(s.events, s.suppliers, s.payments), nil
}

func (s *Store) SupplierReport(_ context.Context, supplierID string) (core.SupplierReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.supplierIndex(supplierID)
	if i < 0 {
		return core.SupplierReport{}, fmt.Errorf("supplier %s: %w", supplierID, core.ErrNotFound)
	}
	return core.BuildSupplierReport(s.suppliers[i], s.events, s.payments), nil
}

func (s *Store) eventIndex(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) supplierIndex(id string) int {
	for i := range s.suppliers {
		if s.suppliers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) eventsCopy() []core.Event {
	out := make([]core.Event, len(s.events))
	for i, ev := range s.events {
		ev.Participants = cloneParticipants(ev.Participants)
		out[i] = ev
	}
	return out
}

func cloneParticipants(in []core.Participant) []core.Participant {
	return append([]core.Participant{}, in...)
}

func clonePayment(p core.Payment) core.Payment {
	if p.Event != nil {
		ref := *p.Event
		p.Event = &ref
	}
	return p
}

func filterPayments(in []core.Payment, keep func(core.Payment) bool) []core.Payment {
	out := in[:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
