// Package server exposes the operational HTTP API: subscription management,
// item read paths, bookmark toggles, ledger inspection and the manual
// refresh trigger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/feedshed/feedshed/pkg/domain"
)

// Storage is the persistence surface the server needs
type Storage interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (created bool, err error)
	GetSubscription(ctx context.Context, guid string) (*domain.Subscription, error)
	GetUserSubscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error)
	DeleteSubscription(ctx context.Context, guid string) error
	GetItemsBySubscription(ctx context.Context, subGUID string, limit, offset int) ([]domain.Item, error)
	AddBookmark(ctx context.Context, userID int64, itemGUID string) error
	RemoveBookmark(ctx context.Context, userID int64, itemGUID string) error
	ListMessages(ctx context.Context, msgType string, status domain.MessageStatus, limit int) ([]domain.ProcessedMessage, error)
}

// Trigger starts an ingestion run on demand
type Trigger interface {
	RefreshNow(ctx context.Context, origin domain.MessageOrigin) error
}

// Resolver maps user input to a feed URL at subscription creation
type Resolver interface {
	Resolve(ctx context.Context, input string) domain.ResolverResult
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	storage  Storage
	trigger  Trigger
	resolver Resolver
	version  string
	debug    bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg ConfigProvider, storage Storage, trigger Trigger, resolver Resolver, version string, debug bool) *Server {
	s := &Server{
		config:   cfg,
		storage:  storage,
		trigger:  trigger,
		resolver: resolver,
		version:  version,
		debug:    debug,
		router:   routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feedshed", "feedshed", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.HandleFunc("POST /subscriptions", s.createSubscriptionHandler)
		r.HandleFunc("GET /subscriptions", s.listSubscriptionsHandler)
		r.HandleFunc("DELETE /subscriptions/{guid}", s.deleteSubscriptionHandler)

		r.HandleFunc("GET /items", s.listItemsHandler)
		r.HandleFunc("POST /items/{guid}/bookmark", s.addBookmarkHandler)
		r.HandleFunc("DELETE /items/{guid}/bookmark", s.removeBookmarkHandler)

		r.HandleFunc("POST /refresh", s.refreshHandler)
		r.HandleFunc("GET /messages", s.listMessagesHandler)
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
