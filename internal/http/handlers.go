package http

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	applog "kaslot/internal/log"
	"kaslot/internal/store"
)

// Entities named in mutation logs and metrics.
const (
	entityEvent       = "event"
	entityParticipant = "participant"
	entitySupplier    = "supplier"
	entityPayment     = "payment"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether the data backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), s.loadTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]interface{}{"templates": "ok"}

	if p, ok := s.backend.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "unchecked"
	}

	response := map[string]interface{}{
		"status":    status,
		"backend":   s.backendName,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "settings_page", newPage(r, "הגדרות", "settings"))
}

// outcome describes a form post for the shared response path.
type outcome struct {
	entity string
	action string
	id     string
	// back is where a non-HTMX post is redirected.
	back    string
	success string
	// alert turns failures into a blocking dialog instead of a toast.
	alert bool
}

// finish answers a mutation. HTMX posts get a notification trigger plus
// HX-Refresh on success; plain posts are redirected back, carrying the
// error message on failure.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, o outcome, err error) {
	ctx := r.Context()
	s.metrics.mutation(o.entity, o.action, err)

	if err != nil {
		status := errorStatus(err)
		msg := userMessage(err)
		if o.alert {
			msg = participantAlert(err)
		}

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		fields := applog.NewFields().
			WithEntity(o.entity, o.id).
			WithOperation(o.action).
			WithError(err)
		fields[applog.FieldStatusCode] = status
		applog.FromContext(ctx).WithComponent(applog.ComponentHTTP).Log(ctx, level, o.entity+" "+o.action+" failed", fields.ToSlice()...)

		if isHTMX(r) {
			b := ErrorResponse(status, msg)
			if o.alert {
				b.TriggerAlert(msg)
			} else {
				b.TriggerErrorNotification(msg)
			}
			b.Write(w)
			return
		}
		http.Redirect(w, r, withError(o.back, msg), http.StatusSeeOther)
		return
	}

	s.changes.LogChange(ctx, o.entity, o.action, o.id)
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerSuccessNotification(o.success).
			Refresh().
			BodyHTML(`<div class="success">` + template.HTMLEscapeString(o.success) + `</div>`).
			Write(w)
		return
	}
	http.Redirect(w, r, o.back, http.StatusSeeOther)
}
