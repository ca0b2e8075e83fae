package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/rssfilter/pkg/domain"
	"github.com/umputun/rssfilter/pkg/feed"
)

//go:generate moq -out mocks/snapshotter.go -pkg mocks -skip-ensure -fmt goimports . Snapshotter
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . HistoryProvider

//go:embed templates/*.html
var templatesFS embed.FS

const historyLimit = 20

// Server represents HTTP server instance
type Server struct {
	snapshots Snapshotter
	history   HistoryProvider
	generator *feed.Generator
	sanitizer *bluemonday.Policy
	statusTpl *template.Template
	params    Params
	startedAt time.Time
	hits      atomic.Int64

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Snapshotter provides the latest published snapshot and the configured feeds
type Snapshotter interface {
	Snapshot() domain.Snapshot
	Aggregation() domain.AggregationConfig
}

// HistoryProvider provides the journal of recent refresh cycles
type HistoryProvider interface {
	Recent(ctx context.Context, limit int) ([]domain.RefreshRecord, error)
}

// Params defines server parameters
type Params struct {
	Listen  string
	Timeout time.Duration
	Channel domain.Channel
	Version string
	Debug   bool
}

// New initializes a new server instance. History is optional.
func New(snapshots Snapshotter, history HistoryProvider, params Params) *Server {
	if params.Listen == "" {
		params.Listen = ":8080"
	}
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	if params.Channel.Language == "" {
		params.Channel.Language = "en"
	}

	s := &Server{
		snapshots: snapshots,
		history:   history,
		generator: feed.NewGenerator(),
		sanitizer: bluemonday.StrictPolicy(),
		statusTpl: template.Must(template.New("status.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/status.html")),
		params:    params,
		startedAt: time.Now(),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.params.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.params.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.params.Timeout,
		WriteTimeout:      s.params.Timeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Hits returns the number of feed requests served
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("rssfilter", "umputun", s.params.Version))
	s.router.Use(rest.Ping)

	if s.params.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // read-only endpoints, no request bodies expected
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /status", s.statusPageHandler)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
	})
}
