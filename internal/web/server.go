package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/restock/internal/auth"
	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/service"
)

// Options configures the optional parts of the server.
type Options struct {
	// Verifier guards every route except /healthz and /metrics. Nil or
	// without a secret disables authentication.
	Verifier *auth.Verifier
	// Registry receives the HTTP metrics and is served on /metrics. Nil
	// disables both.
	Registry *prometheus.Registry
	// Now stamps exports. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	service   *service.InventoryService
	templates embed.FS
	mux       *http.ServeMux
	handler   http.Handler
	tmplFuncs template.FuncMap
	logger    *slog.Logger
	now       func() time.Time
}

func NewServer(svc *service.InventoryService, tmpl embed.FS, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		service:   svc,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		now:       opts.Now,
		tmplFuncs: template.FuncMap{
			"inc":   func(i int) int { return i + 1 },
			"lower": strings.ToLower,
			"title": func(c domain.Collection) string { return c.Title() },
		},
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.registerRoutes()

	var h http.Handler = s.mux
	if opts.Registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
		h = instrument(opts.Registry, h)
	}
	h = auth.Middleware(opts.Verifier, logger, "/healthz", "/metrics")(h)
	s.handler = requestLogger(logger, securityHeaders(h))
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+string(domain.Materials), http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("GET /images/{key}", s.handleGetImage)

	// Each collection gets literal routes so they never overlap with /images
	// or /metrics.
	for _, c := range domain.Collections {
		p := "/" + string(c)
		s.mux.HandleFunc("GET "+p, s.forCollection(c, s.handleList))
		s.mux.HandleFunc("GET "+p+"/new", s.forCollection(c, s.handleNewForm))
		s.mux.HandleFunc("GET "+p+"/export.pdf", s.forCollection(c, s.handleExport))
		s.mux.HandleFunc("POST "+p, s.forCollection(c, s.handleCreate))
		s.mux.HandleFunc("POST "+p+"/suggest", s.forCollection(c, s.handleSuggest))
		s.mux.HandleFunc("GET "+p+"/{id}/edit", s.forCollection(c, s.handleEditForm))
		s.mux.HandleFunc("POST "+p+"/{id}", s.forCollection(c, s.handleUpdate))
		s.mux.HandleFunc("DELETE "+p+"/{id}", s.forCollection(c, s.handleDelete))
		s.mux.HandleFunc("GET "+p+"/{id}/adjust", s.forCollection(c, s.handleAdjustForm))
		s.mux.HandleFunc("POST "+p+"/{id}/adjust", s.forCollection(c, s.handleAdjust))
	}
}

type collectionHandler func(w http.ResponseWriter, r *http.Request, c domain.Collection)

func (s *Server) forCollection(c domain.Collection, h collectionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, c)
	}
}

// securityHeaders sets the browser security headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// instrument counts and times every request by method and status code.
func instrument(reg prometheus.Registerer, next http.Handler) http.Handler {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restock",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		},
		[]string{"code", "method"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "restock",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)
	reg.MustRegister(requests, duration)
	return promhttp.InstrumentHandlerCounter(requests, promhttp.InstrumentHandlerDuration(duration, next))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// renderPartial parses and executes a single named partial template with a
// 200 status. The file must contain exactly one {{define "name"}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	return s.renderPartialStatus(w, http.StatusOK, file, data)
}

func (s *Server) renderPartialStatus(w http.ResponseWriter, status int, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	// ParseFS registers both the file-basename template and any {{define}} blocks.
	// The {{define}} template is the one named neither "" nor the basename.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	target := tmpl.Lookup(basename)
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			target = t
			break
		}
	}
	if target == nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return fmt.Errorf("no template in %s", file)
	}

	var buf bytes.Buffer
	if err := target.Execute(&buf, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
