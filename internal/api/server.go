// Package api exposes the application over a local REST and WebSocket
// surface for the UI to consume.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cardbinder/cardbinder/internal/api/handlers"
	"github.com/cardbinder/cardbinder/internal/api/websocket"
	"github.com/cardbinder/cardbinder/internal/auth"
	"github.com/cardbinder/cardbinder/internal/collection"
)

// Config holds configuration for the API server.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           8585,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// Services holds the application services the API serves.
type Services struct {
	Manager *collection.Manager
	Finder  handlers.CardFinder
	Auth    *auth.Provider
	Scanner handlers.ScanProcessor
}

// Server is the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	wsHub      *websocket.Hub

	collectionHandler *handlers.CollectionHandler
	decksHandler      *handlers.DecksHandler
	cardsHandler      *handlers.CardsHandler
	authHandler       *handlers.AuthHandler
	scanHandler       *handlers.ScanHandler
}

// NewServer creates a new API server over the given services.
func NewServer(cfg *Config, services *Services) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:            chi.NewRouter(),
		config:            cfg,
		wsHub:             websocket.NewHub(),
		collectionHandler: handlers.NewCollectionHandler(services.Manager),
		decksHandler:      handlers.NewDecksHandler(services.Manager),
		cardsHandler:      handlers.NewCardsHandler(services.Finder),
		authHandler:       handlers.NewAuthHandler(services.Auth),
		scanHandler:       handlers.NewScanHandler(services.Scanner),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(s.jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json for requests with
// bodies. The scan endpoint takes raw image bytes and is exempt.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength != 0 && !strings.HasPrefix(r.URL.Path, "/api/scan") {
				contentType := r.Header.Get("Content-Type")
				if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
					http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// setupRoutes registers the API routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/search", s.cardsHandler.Search)
			r.Get("/named", s.cardsHandler.Named)
		})

		r.Route("/collection", func(r chi.Router) {
			r.Get("/", s.collectionHandler.GetCollection)
			r.Get("/stats", s.collectionHandler.GetStats)
			r.Get("/stats/chart", s.collectionHandler.GetStatsChart)
			r.Post("/cards", s.collectionHandler.AddCard)
			r.Delete("/cards/{cardID}", s.collectionHandler.RemoveCard)
			r.Post("/cards/{cardID}/foil", s.collectionHandler.ToggleFoil)
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.decksHandler.List)
			r.Post("/", s.decksHandler.Create)
			r.Get("/{deckID}", s.decksHandler.Get)
			r.Get("/{deckID}/stats", s.decksHandler.GetStats)
			r.Get("/{deckID}/stats/chart", s.decksHandler.GetStatsChart)
			r.Post("/{deckID}/cards", s.decksHandler.AddCard)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/session", s.authHandler.Session)
			r.Post("/signin", s.authHandler.SignIn)
			r.Post("/signup", s.authHandler.SignUp)
			r.Post("/signout", s.authHandler.SignOut)
		})

		r.Post("/scan", s.scanHandler.Scan)
		r.Get("/ws", s.wsHub.ServeWs)
	})
}

// Start starts the WebSocket hub and the HTTP server in goroutines.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[API] server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the HTTP server and the WebSocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// WebSocketHub returns the hub for event forwarding.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewEventObserver creates an observer that forwards domain events to
// connected WebSocket clients.
func (s *Server) NewEventObserver() *websocket.EventObserver {
	return websocket.NewEventObserver(s.wsHub)
}
