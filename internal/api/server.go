// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/cache"
	"github.com/KaramelBytes/chartloom/internal/share"
)

// Options wires a Server.
type Options struct {
	Analyzer *analysis.Analyzer
	Shares   share.Store
	// Analysis is the per-request pipeline template; skip_ai is applied on top.
	Analysis       analysis.Options
	AllowedOrigins []string
	// InsightStats reports the AI insight cache, if any.
	InsightStats func() cache.Stats
	Logger       *slog.Logger
}

// Server serves the /api routes.
type Server struct {
	analyzer     *analysis.Analyzer
	shares       share.Store
	opt          analysis.Options
	insightStats func() cache.Stats
	logger       *slog.Logger
	metrics      *requestMetrics
	router       chi.Router
}

// NewServer builds the router. A nil Analyzer or Shares gets a default.
func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Analyzer == nil {
		o.Analyzer = analysis.New(analysis.Config{Logger: o.Logger})
	}
	if o.Shares == nil {
		o.Shares = share.NewMemoryStore()
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	s := &Server{
		analyzer:     o.Analyzer,
		shares:       o.Shares,
		opt:          o.Analysis,
		insightStats: o.InsightStats,
		logger:       o.Logger,
		metrics:      &requestMetrics{},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(correlate(s.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", CorrelationHeader},
		ExposedHeaders:   []string{CorrelationHeader, "X-Response-Time"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/upload", s.upload)
		r.Post("/story", s.story)
		r.Post("/share", s.createShare)
		r.Get("/share/{token}", s.getShare)
		r.Get("/metrics", s.getMetrics)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, CodeNotFound, "")
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
// Expired shares and cache entries are swept every ten minutes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.sweep(ctx, 10*time.Minute)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.shares.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("share cleanup failed", "err", err)
			}
			s.logger.Debug("sweep", "shares", n, "cache_entries", s.analyzer.Cleanup())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, extra string) {
	writeJSON(w, status, newError(code, extra, CorrelationID(r.Context())))
}
