package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kaslot/internal/export"
	applog "kaslot/internal/log"
	"kaslot/internal/middleware/ratelimit"
	"kaslot/internal/middleware/security"
	"kaslot/internal/middleware/trace"
	"kaslot/internal/store"
	appweb "kaslot/web"
)

const defaultLoadTimeout = 7 * time.Second

// Options configures a Server.
type Options struct {
	Addr    string
	Backend store.Backend
	// BackendName labels logs and readiness output (api, sqlite, memory).
	BackendName string
	Logger      *applog.Logger
	// PublicBaseURL roots share links. Empty means the request host.
	PublicBaseURL  string
	RateLimit      string
	TrustedProxies []string
	// LoadTimeout bounds each page's collection loads.
	LoadTimeout time.Duration
}

type Server struct {
	http.Server
	templates *template.Template

	backend     store.Backend
	backendName string
	exporter    *export.Exporter

	logger  *applog.Logger
	changes *applog.StructuredLogger
	metrics *Metrics

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	publicBaseURL string
	loadTimeout   time.Duration
	started       time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("http server: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.RateLimit == "" {
		opts.RateLimit = "60-M"
	}

	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("security detector: %w", err)
	}
	limiter, err := ratelimit.NewLimiter(opts.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	metrics := NewMetrics()
	detector.OnSuspicious = metrics.suspiciousRequest
	limiter.OnLimit = metrics.rateLimitHit

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		templates:     t,
		backend:       opts.Backend,
		backendName:   opts.BackendName,
		exporter:      export.NewExporter(),
		logger:        logger,
		changes:       applog.NewStructuredLogger(logger),
		metrics:       metrics,
		detector:      detector,
		limiter:       limiter,
		tracer:        trace.NewMiddleware(logger, detector.ExtractClientIP, metrics.ObserveRequest),
		publicBaseURL: opts.PublicBaseURL,
		loadTimeout:   opts.LoadTimeout,
		started:       time.Now(),
	}

	handler, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.Handler = handler
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP))

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Get("/", s.handleDashboard)
	r.Get("/settings", s.handleSettings)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleEvents)
		r.Post("/", s.handleCreateEvent)
		r.Post("/{id}", s.handleUpdateEvent)
		r.Post("/{id}/delete", s.handleDeleteEvent)
		r.Post("/{id}/participants", s.handleAddParticipant)
		r.Post("/{id}/participants/{supplierId}", s.handleUpdateParticipant)
		r.Post("/{id}/participants/{supplierId}/delete", s.handleRemoveParticipant)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", s.handleSuppliers)
		r.Post("/", s.handleCreateSupplier)
		r.Post("/{id}", s.handleUpdateSupplier)
		r.Post("/{id}/delete", s.handleDeleteSupplier)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", s.handlePayments)
		r.Post("/", s.handleCreatePayment)
		r.Post("/{id}/delete", s.handleDeletePayment)
	})

	r.Get("/supplier-report/{id}", s.handleSupplierReport)
	r.Get("/supplier-report/{id}/export", s.handleExportReport)

	r.NotFound(s.handleNotFound)
	return r, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// render executes a page template into a buffer first, so a template error
// still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name,
			applog.FieldOperation, applog.OpRender)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "not_found_page", newPage(r, "לא נמצא", ""))
}
