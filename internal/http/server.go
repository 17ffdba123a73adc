// Package http serves the FinTrack pages, the htmx fragments they swap in
// and a small JSON API over the same store.
package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/labels"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/rates"
	"fintrack/internal/store"
	"fintrack/internal/view"
	appweb "fintrack/web"
)

// RateRefresher reloads the live rate table for the current base currency.
type RateRefresher interface {
	Refresh(ctx context.Context) error
}

// CurrencySource lists the currencies offered by the transaction form.
type CurrencySource interface {
	Currencies(ctx context.Context) []string
}

// Translations hands out a translator over the current label catalog.
type Translations interface {
	Translator(lang labels.Lang) *labels.Translator
}

// LanguageResolver picks the language of a request.
type LanguageResolver interface {
	Resolve(ctx context.Context, query, acceptLanguage string) (labels.Lang, error)
}

// Deps are the collaborators of the server.
type Deps struct {
	Store      *store.Store
	Rates      RateRefresher
	Currencies CurrencySource
	Labels     Translations
	Language   LanguageResolver
	Logger     *log.Logger

	PageSize  int
	Location  *time.Location
	RateLimit ratelimit.Config
	Now       func() time.Time
	// Assets overrides the embedded templates and static files.
	Assets fs.FS
}

type Server struct {
	http.Server

	store      *store.Store
	rates      RateRefresher
	currencies CurrencySource
	labels     Translations
	language   LanguageResolver
	logger     *log.Logger
	templates  *renderer
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware

	pageSize int
	loc      *time.Location
	now      func() time.Time
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer parses the templates and wires the routes. Missing templates
// are an error: the server cannot render anything without them.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("http: store is required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.PageSize <= 0 {
		deps.PageSize = view.DefaultPageSize
	}
	if deps.Labels == nil {
		deps.Labels = staticLabels{}
	}
	if deps.Assets == nil {
		deps.Assets = appweb.FS
	}

	tmpl, err := newRenderer(deps.Assets)
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(deps.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		store:      deps.Store,
		rates:      deps.Rates,
		currencies: deps.Currencies,
		labels:     deps.Labels,
		language:   deps.Language,
		logger:     deps.Logger.WithComponent(log.ComponentHTTP),
		templates:  tmpl,
		limiter:    ratelimit.NewLimiter(deps.RateLimit),
		detector:   security.NewDetector(deps.Logger),
		pageSize:   deps.PageSize,
		loc:        deps.Location,
		now:        deps.Now,
		started:    deps.Now(),
	}
	s.tracer = trace.NewMiddleware(deps.Logger, s.detector.ClientIP)

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticCache(3600)(http.StripPrefix("/static/", http.FileServerFS(static))))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /transactions", s.handleHistory)
	mux.HandleFunc("GET /api/transactions", s.handleHistoryJSON)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/{id}/edit", s.handleEditTransaction)
	mux.HandleFunc("POST /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("POST /currency", s.handleSetCurrency)
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// Limiter exposes the rate limiter so its stale clients can be swept.
func (s *Server) Limiter() *ratelimit.Limiter { return s.limiter }

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the store can serve requests.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "store": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	NewHTMXResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
		"trace":  s.tracer.GetMetrics(),
	}).Write(w)
}

// staticLabels serves only the built-in strings.
type staticLabels struct{}

func (staticLabels) Translator(lang labels.Lang) *labels.Translator {
	return labels.NewTranslator(lang, nil)
}

var _ CurrencySource = (*rates.Client)(nil)
