// Package server exposes a designer store over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/observability"
)

// maxBody bounds request bodies, imports included.
const maxBody = 1 << 20

// Server serves one shared store.
type Server struct {
	store  *designer.Store
	log    *log.Logger
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds the router for store.
func New(store *designer.Store, opts ...Option) *Server {
	s := &Server{store: store, log: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to grace to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/registry", s.listKinds)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.listTemplates)
		r.Post("/", s.createTemplate)
		r.Post("/import", s.importTemplate)

		r.Route("/{templateID}", func(r chi.Router) {
			r.Get("/", s.getTemplate)
			r.Patch("/", s.renameTemplate)
			r.Delete("/", s.deleteTemplate)
			r.Get("/export", s.exportTemplate)
			r.Post("/duplicate", s.duplicateTemplate)
			r.Post("/default", s.setDefaultTemplate)
			r.Post("/activate", s.activateTemplate)
			r.Post("/reset", s.resetTemplate)
		})
	})

	r.Route("/active", func(r chi.Router) {
		r.Get("/", s.getActive)
		r.Get("/rows", s.getRows)
		r.Get("/preview", s.getPreview)
		r.Patch("/page", s.updatePage)
		r.Patch("/styles", s.updateStyles)
		r.Put("/selection", s.selectModule)
		r.Post("/reorder", s.reorderModules)
		r.Post("/drop", s.dropModule)

		r.Post("/modules", s.addModule)
		r.Route("/modules/{moduleID}", func(r chi.Router) {
			r.Delete("/", s.removeModule)
			r.Patch("/config", s.updateModuleConfig)
			r.Put("/width", s.updateModuleWidth)
			r.Post("/duplicate", s.duplicateModule)
			r.Post("/move", s.moveModule)
			r.Get("/form", s.getForm)
			r.Post("/form", s.setFormField)
		})
	})

	return r
}

// requestLogger logs each request once it has been served and reports it to
// the HTTP hooks.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			dur := time.Since(start)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observability.HTTP().OnResponse(r.Context(), r.Method, route, status, dur)
			s.log.Debug("request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", dur.Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
