package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kaslot/internal/core"
	applog "kaslot/internal/log"
)

type suppliersView struct {
	Suppliers []core.Supplier
	Total     int
}

func (s *Server) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	snap := s.load(r.Context(), needSuppliers)
	p := newPage(r, "ספקים ונגנים", "suppliers")
	p.LoadFailed = snap.Failed
	p.Data = suppliersView{
		Suppliers: core.FilterSuppliers(snap.Suppliers, p.Query),
		Total:     len(snap.Suppliers),
	}
	s.render(w, r, http.StatusOK, "suppliers_page", p)
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	o := outcome{entity: entitySupplier, action: applog.OpCreate, back: backTo(r, "/suppliers"), success: "הספק נוסף"}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	sup, err := parseSupplierForm(p)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	created, err := s.backend.CreateSupplier(r.Context(), sup)
	o.id = created.ID
	s.finish(w, r, o, err)
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o := outcome{entity: entitySupplier, action: applog.OpUpdate, id: id, back: backTo(r, "/suppliers"), success: "הספק עודכן"}

	p, err := parseBody(r)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	sup, err := parseSupplierForm(p)
	if err != nil {
		s.finish(w, r, o, err)
		return
	}
	_, err = s.backend.UpdateSupplier(r.Context(), id, sup)
	s.finish(w, r, o, err)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o := outcome{entity: entitySupplier, action: applog.OpDelete, id: id, back: backTo(r, "/suppliers"), success: "הספק נמחק"}
	s.finish(w, r, o, s.backend.DeleteSupplier(r.Context(), id))
}
