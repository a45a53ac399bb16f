package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kaslot/internal/core"
	applog "kaslot/internal/log"
	"kaslot/internal/store"
	"kaslot/internal/store/memory"
	"kaslot/internal/store/rest"
)

func testSeed() memory.Seed {
	return memory.Seed{
		Suppliers: []core.Supplier{
			{ID: "s1", Name: "Dana", Role: "Drums"},
			{ID: "s2", Name: "Avi", Role: "Sound"},
		},
		Events: []core.Event{
			{
				ID:         "e1",
				Title:      "Wedding",
				Date:       core.NewDate(2025, 6, 1),
				Location:   "Haifa",
				TotalPrice: core.Money{Cents: 100000},
				Participants: []core.Participant{
					{Supplier: core.Ref{ID: "s1"}, ExpectedPay: core.Money{Cents: 40000}},
				},
			},
		},
		Payments: []core.Payment{
			{ID: "p1", Supplier: core.Ref{ID: "s1"}, Event: &core.Ref{ID: "e1"}, Amount: core.Money{Cents: 10000}, Method: core.MethodCash, Date: core.NewDate(2025, 6, 2)},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	backend := memory.NewFromSeed(testSeed())
	return newServerWith(t, backend), backend
}

func newServerWith(t *testing.T, backend store.Backend) *Server {
	t.Helper()
	srv, err := NewServer(Options{
		Addr:        ":0",
		Backend:     backend,
		BackendName: "memory",
		Logger:      applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard, NoColor: true}),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func formPost(path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestNewServerRequiresBackend(t *testing.T) {
	if _, err := NewServer(Options{}); err == nil {
		t.Fatal("expected error without backend")
	}
}

func TestPagesRender(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", "דשבורד"},
		{"/?year=2025", "Drums - Dana"},
		{"/events", "Wedding"},
		{"/events?q=haifa", "Wedding"},
		{"/suppliers", "Avi"},
		{"/payments", "/supplier-report/s1"},
		{"/settings", "₪"},
		{"/supplier-report/s1", "Dana"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestEventsSearchWithoutMatches(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/events?q=nothing-like-this", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Wedding") {
		t.Error("filtered event still listed")
	}
}

func TestReportPageHasNoNavigation(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/supplier-report/s1", nil))
	if strings.Contains(rr.Body.String(), `class="nav"`) {
		t.Error("public report should render without navigation")
	}
}

func TestReportPageUnknownSupplier(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/supplier-report/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), reportLoadError) {
		t.Error("missing blocking report error")
	}
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body["backend"] != "memory" || body["status"] != "ready" {
		t.Errorf("unexpected readyz body %v", body)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "show-notification") {
		t.Error("unexpected app.js content")
	}
}

func TestFormPostRedirects(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		values    url.Values
		wantLoc   string
		wantError bool
	}{
		{
			name:    "create supplier",
			path:    "/suppliers",
			values:  url.Values{"name": {"Noa"}, "role": {"Bass"}, "defaultPrice": {"350"}},
			wantLoc: "/suppliers",
		},
		{
			name:      "event without title",
			path:      "/events",
			values:    url.Values{"title": {""}, "date": {"2025-01-01"}},
			wantLoc:   "/events?error=",
			wantError: true,
		},
		{
			name:      "payment with unknown type",
			path:      "/payments",
			values:    url.Values{"supplierId": {"s1"}, "amount": {"10"}, "type": {"gift"}},
			wantLoc:   "/payments?error=",
			wantError: true,
		},
		{
			name:    "update event",
			path:    "/events/e1",
			values:  url.Values{"title": {"Wedding B"}, "date": {"2025-06-01"}, "totalPrice": {"1200"}},
			wantLoc: "/events",
		},
		{
			name:      "update missing supplier",
			path:      "/suppliers/ghost",
			values:    url.Values{"name": {"X"}, "role": {"Y"}},
			wantLoc:   "/suppliers?error=",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := serve(srv, formPost(tt.path, tt.values, false))
			if rr.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			loc := rr.Header().Get("Location")
			if !strings.HasPrefix(loc, tt.wantLoc) {
				t.Errorf("Location = %q, want prefix %q", loc, tt.wantLoc)
			}
			if !tt.wantError && strings.Contains(loc, "error=") {
				t.Errorf("unexpected error in %q", loc)
			}
		})
	}
}

func TestRedirectFollowsReferer(t *testing.T) {
	srv, _ := newTestServer(t)
	req := formPost("/suppliers", url.Values{"name": {"Noa"}, "role": {"Bass"}}, false)
	req.Header.Set("Referer", "http://example.com/suppliers?q=no&error=old")
	rr := serve(srv, req)
	if got := rr.Header().Get("Location"); got != "/suppliers?q=no" {
		t.Fatalf("Location = %q", got)
	}
}

func TestHTMXPaymentCreate(t *testing.T) {
	srv, backend := newTestServer(t)
	rr := serve(srv, formPost("/payments", url.Values{
		"supplierId": {"s1"},
		"amount":     {"50"},
		"type":       {"loan"},
	}, true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("HX-Refresh") != "true" {
		t.Error("expected HX-Refresh")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "show-notification") {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}

	payments, err := backend.ListPayments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var loans int
	for _, p := range payments {
		if p.Method == core.MethodLoan {
			loans++
			if p.Note != core.DefaultLoanNote {
				t.Errorf("loan note = %q", p.Note)
			}
		}
	}
	if loans != 1 {
		t.Fatalf("loans = %d, want 1", loans)
	}
}

func TestHTMXDuplicateParticipant(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, formPost("/events/e1/participants", url.Values{
		"supplierId":  {"s1"},
		"expectedPay": {"300"},
	}, true))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "show-alert") {
		t.Fatalf("HX-Trigger = %q", trigger)
	}
	var payload map[string]map[string]string
	if err := json.Unmarshal([]byte(trigger), &payload); err != nil {
		t.Fatalf("decode trigger: %v", err)
	}
	if payload["show-alert"]["message"] != "הספק כבר משתתף באירוע" {
		t.Errorf("alert message = %q", payload["show-alert"]["message"])
	}
	if rr.Header().Get("HX-Refresh") != "" {
		t.Error("failed mutation must not refresh")
	}
}

func TestParticipantLifecycle(t *testing.T) {
	srv, backend := newTestServer(t)
	ctx := context.Background()

	rr := serve(srv, formPost("/events/e1/participants", url.Values{"supplierId": {"s2"}, "expectedPay": {"150"}, "currency": {"Dollar"}}, false))
	if rr.Code != http.StatusSeeOther || strings.Contains(rr.Header().Get("Location"), "error=") {
		t.Fatalf("add: status = %d, location = %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = serve(srv, formPost("/events/e1/participants/s2", url.Values{"expectedPay": {"175"}, "currency": {"Dollar"}}, false))
	if rr.Code != http.StatusSeeOther || strings.Contains(rr.Header().Get("Location"), "error=") {
		t.Fatalf("update: status = %d, location = %q", rr.Code, rr.Header().Get("Location"))
	}

	events, _ := backend.ListEvents(ctx)
	p, ok := events[0].Participant("s2")
	if !ok || p.ExpectedPay.Cents != 17500 || p.Currency != core.Dollar {
		t.Fatalf("participant = %+v (found %v)", p, ok)
	}

	rr = serve(srv, formPost("/events/e1/participants/s2/delete", nil, false))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("remove: status = %d", rr.Code)
	}
	events, _ = backend.ListEvents(ctx)
	if _, ok := events[0].Participant("s2"); ok {
		t.Fatal("participant still attached")
	}
}

func TestDeleteEventCascadesPayments(t *testing.T) {
	srv, backend := newTestServer(t)
	rr := serve(srv, formPost("/events/e1/delete", nil, true))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	payments, _ := backend.ListPayments(context.Background())
	for _, p := range payments {
		if p.EventID() == "e1" {
			t.Fatalf("payment %s survived its event", p.ID)
		}
	}
}

func TestHTMXNotFoundMutation(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, formPost("/payments/ghost/delete", nil, true))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "show-notification") {
		t.Error("expected error notification")
	}
}

func TestExportReport(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		format     string
		wantStatus int
		wantType   string
	}{
		{"csv", http.StatusOK, "text/csv"},
		{"xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"pdf", http.StatusOK, "application/pdf"},
		{"doc", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, "/supplier-report/s1/export?format="+tt.format, nil))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d", rr.Code)
			}
			if tt.wantType == "" {
				return
			}
			if !strings.HasPrefix(rr.Header().Get("Content-Type"), tt.wantType) {
				t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
			}
			cd := rr.Header().Get("Content-Disposition")
			if !strings.HasPrefix(cd, `attachment; filename="supplier_report_Dana_`) {
				t.Errorf("Content-Disposition = %q", cd)
			}
		})
	}
}

func TestExportUnknownSupplier(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/supplier-report/ghost/export?format=csv", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	serve(srv, formPost("/suppliers", url.Values{"name": {"Noa"}, "role": {"Bass"}}, false))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`kaslot_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`kaslot_mutations_total{action="create",entity="supplier",outcome="success"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

// failingBackend serves the seed but fails the named read.
type failingBackend struct {
	*memory.Store
	fail string
	err  error
}

func (b failingBackend) ListEvents(ctx context.Context) ([]core.Event, error) {
	if b.fail == "events" {
		return nil, b.err
	}
	return b.Store.ListEvents(ctx)
}

func (b failingBackend) ListPayments(ctx context.Context) ([]core.Payment, error) {
	if b.fail == "payments" {
		return nil, b.err
	}
	return b.Store.ListPayments(ctx)
}

func (b failingBackend) Summary(ctx context.Context) (core.DashboardSummary, error) {
	if b.fail == "summary" {
		return core.DashboardSummary{}, b.err
	}
	return b.Store.Summary(ctx)
}

func (b failingBackend) SupplierReport(ctx context.Context, id string) (core.SupplierReport, error) {
	if b.fail == "report" {
		return core.SupplierReport{}, b.err
	}
	return b.Store.SupplierReport(ctx, id)
}

func TestLoadFailureRendersBanner(t *testing.T) {
	tests := []struct {
		name   string
		fail   string
		path   string
		absent []string
	}{
		{"payments page", "payments", "/payments", []string{"Dana", "/supplier-report/s1"}},
		{"events page", "events", "/events", []string{"Wedding", "Haifa"}},
		{"dashboard", "summary", "/?year=2025", []string{"Drums - Dana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := failingBackend{Store: memory.NewFromSeed(testSeed()), fail: tt.fail, err: errors.New("connection refused")}
			srv := newServerWith(t, backend)

			rr := serve(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, "banner--error") {
				t.Error("expected load error banner")
			}
			for _, s := range tt.absent {
				if strings.Contains(body, s) {
					t.Errorf("body still contains %q after failed load", s)
				}
			}
		})
	}
}

func TestReportPageUpstreamFailure(t *testing.T) {
	backend := failingBackend{
		Store: memory.NewFromSeed(testSeed()),
		fail:  "report",
		err:   &rest.APIError{Method: http.MethodGet, Path: "/api/suppliers/s1/report", Status: http.StatusInternalServerError},
	}
	srv := newServerWith(t, backend)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/supplier-report/s1", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), reportLoadError) {
		t.Error("expected blocking report message")
	}
}
