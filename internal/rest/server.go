package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Address        string
	Version        string
	JWTSecret      []byte
	AllowedOrigins []string
}

type Server struct {
	log     *logrus.Entry
	app     App
	cfg     Config
	server  *http.Server
	handler http.Handler
}

func NewServer(log *logrus.Logger, app App, cfg Config) *Server {
	s := Server{
		log: log.WithField("component", "rest"),
		app: app,
		cfg: cfg,
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Get("/version", s.versionHandler)
	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/register", s.registerHandler)
			r.Post("/auth/login", s.loginHandler)
			r.Group(func(r chi.Router) {
				r.Use(s.jwtAuth)
				r.Get("/auth/me", s.meHandler)
				r.Route("/requests", s.requestRoutes(models.KindServidor))
				r.Route("/arduino-requests", s.requestRoutes(models.KindArduino))
				r.Route("/reports", func(r chi.Router) {
					r.Use(s.requireRoles(models.RoleSoporte, models.RoleMetricas))
					r.Get("/stats", s.statsHandler)
					r.Get("/timeline", s.timelineHandler)
				})
			})
		})
	})
	return r
}

func (s *Server) requestRoutes(kind models.Kind) func(r chi.Router) {
	return func(r chi.Router) {
		r.With(s.requireRoles(models.RoleEstudiante)).Post("/", s.createRequestHandler(kind))
		r.Get("/", s.listRequestsHandler(kind))
		r.Get("/{id}", s.getRequestHandler(kind))
		r.With(s.requireRoles(models.RoleSoporte)).Put("/{id}/authorize", s.authorizeRequestHandler(kind))
		r.With(s.requireRoles(models.RoleEstudiante)).Delete("/{id}", s.deleteRequestHandler(kind))
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("err serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("err shutting down http server: %w", err)
	}
	return nil
}
