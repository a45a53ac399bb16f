package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kaslot/internal/core"
	"kaslot/internal/export"
	applog "kaslot/internal/log"
)

const reportLoadError = "לא ניתן לטעון את הדוח. ייתכן שהקישור אינו תקין."

type reportView struct {
	Report  core.SupplierReport
	Balance core.Totals
	// Currencies are the report's active currencies, or Shekel alone.
	Currencies []core.Currency
	Formats    []string
	// Error replaces the report with a blocking message.
	Error string
}

func (s *Server) loadReport(ctx context.Context, supplierID string) (core.SupplierReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()
	return s.backend.SupplierReport(ctx, supplierID)
}

// handleSupplierReport renders the public, read-only account of a supplier.
func (s *Server) handleSupplierReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := newPage(r, "דוח ספק", "")

	report, err := s.loadReport(r.Context(), id)
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentBackend).ErrorContext(r.Context(), "Failed to load supplier report",
			applog.FieldError, err,
			applog.FieldSupplierID, id,
			applog.FieldBackend, s.backendName)
		p.Data = reportView{Error: reportLoadError}
		s.render(w, r, errorStatus(err), "report_page", p)
		return
	}

	currencies := report.ActiveCurrencies()
	if len(currencies) == 0 {
		currencies = []core.Currency{core.Shekel}
	}
	p.Title = "דוח ספק: " + report.Supplier.Name
	p.Data = reportView{
		Report:     report,
		Balance:    report.Balance(),
		Currencies: currencies,
		Formats:    export.Formats(),
	}
	s.render(w, r, http.StatusOK, "report_page", p)
}

// handleExportReport streams the report as a downloadable file.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentExport)

	report, err := s.loadReport(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load supplier report",
			applog.FieldError, err,
			applog.FieldSupplierID, id,
			applog.FieldOperation, applog.OpExport)
		http.Error(w, reportLoadError, errorStatus(err))
		return
	}

	data, filename, mime, err := s.exporter.Export(report, format)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			http.Error(w, "unsupported format", http.StatusBadRequest)
			return
		}
		logger.ErrorContext(r.Context(), "Report export failed",
			applog.FieldError, err,
			applog.FieldSupplierID, id,
			applog.FieldFormat, format,
			applog.FieldOperation, applog.OpExport)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	s.metrics.exported(format)
	logger.InfoContext(r.Context(), "Report exported",
		applog.FieldSupplierID, id,
		applog.FieldFormat, format,
		"bytes", len(data))

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
