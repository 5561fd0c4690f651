package server

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chandra-gummaluru/beamer-plus/internal/app/server/handlers"
	"github.com/chandra-gummaluru/beamer-plus/internal/config"
	"github.com/chandra-gummaluru/beamer-plus/pkg/middleware"
)

type Server struct {
	log           *slog.Logger
	cfg           config.Config
	mux           *chi.Mux
	wsHandler     *handlers.WSHandler
	surveyHandler *handlers.SurveyHandler
}

func NewServer(
	log *slog.Logger,
	cfg config.Config,
	wsHandler *handlers.WSHandler,
	surveyHandler *handlers.SurveyHandler,
) *Server {
	s := &Server{
		log:           log,
		cfg:           cfg,
		mux:           chi.NewRouter(),
		wsHandler:     wsHandler,
		surveyHandler: surveyHandler,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Use(middleware.RequestLogger(s.log))
	s.mux.Use(middleware.Tracer(s.cfg.Service.Name))
	s.mux.Use(middleware.Metrics())

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.Get("/ws", s.wsHandler.Handler)

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/backends", s.surveyHandler.Backends)
		r.Route("/surveys", func(r chi.Router) {
			r.Post("/", s.surveyHandler.Create)
			r.Route("/{surveyID}", func(r chi.Router) {
				r.Post("/responses", s.surveyHandler.Respond)
				r.Get("/responses", s.surveyHandler.Responses)
				r.Post("/close", s.surveyHandler.Close)
				r.Post("/analyze", s.surveyHandler.Analyze)
			})
		})
	})

	// Presenter and viewer pages.
	staticDir := s.cfg.Server.StaticDir
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	})
	s.mux.Get("/viewer", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "viewer.html"))
	})
	s.mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Service.Addr,
		Handler:      s.mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("server - start - listening", "addr", s.cfg.Service.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
