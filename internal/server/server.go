package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/store"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

type Server struct {
	hub            *ws.Hub
	resolver       identity.Resolver
	authH          *handler.AuthHandler
	userH          *handler.UserHandler
	householdH     *handler.HouseholdHandler
	categoryH      *handler.CategoryHandler
	choreH         *handler.ChoreHandler
	registryH      *handler.RegistryHandler
	healthH        *handler.HealthHandler
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	corsOrigins    []string
	logger         *slog.Logger
}

func New(db *sql.DB, resolver identity.Resolver, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	categoryStore := store.NewCategoryStore(db)
	choreStore := store.NewChoreStore(db)
	registryStore := store.NewRegistryStore(db)

	loginLimit, loginWindow := cfg.LoginRateLimit, cfg.LoginRateWindow
	if loginLimit <= 0 {
		loginLimit = 10
	}
	if loginWindow <= 0 {
		loginWindow = time.Minute
	}

	return &Server{
		hub:            hub,
		resolver:       resolver,
		authH:          handler.NewAuthHandler(resolver, userStore, logger.With("component", "auth")),
		userH:          handler.NewUserHandler(userStore, logger.With("component", "user")),
		householdH:     handler.NewHouseholdHandler(householdStore, hub, logger.With("component", "household")),
		categoryH:      handler.NewCategoryHandler(categoryStore, hub, logger.With("component", "category")),
		choreH:         handler.NewChoreHandler(choreStore, hub, logger.With("component", "chore")),
		registryH:      handler.NewRegistryHandler(registryStore, hub, cfg.Location, logger.With("component", "registry")),
		healthH:        handler.NewHealthHandler(db, logger.With("component", "health")),
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(loginLimit, loginWindow),
		corsOrigins:    cfg.CORSOrigins,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the household change feed.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthH.Health)
	outerMux.Handle("GET /metrics", promhttp.Handler())
	outerMux.Handle("POST /auth/login", s.rateLimiter.Limit("POST /auth/login")(http.HandlerFunc(s.authH.Login)))

	// Everything else needs a bearer credential
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(s.resolver)(protectedMux))

	var h http.Handler = outerMux
	h = middleware.Metrics(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.RequestID(h)
	return s.cors().Handler(h)
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	guard := middleware.RequireHouseholdMember(s.householdStore)
	member := func(h http.HandlerFunc) http.Handler {
		return guard(h)
	}

	// Auth
	mux.HandleFunc("GET /auth/me", s.authH.Me)
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)

	// Users
	mux.HandleFunc("GET /users/{uid}", s.userH.Get)
	mux.HandleFunc("POST /users", s.userH.Upsert)

	// Households
	mux.HandleFunc("GET /households", s.householdH.List)
	mux.HandleFunc("POST /households", s.householdH.Create)
	mux.Handle("GET /households/{householdId}", member(s.householdH.Get))
	mux.Handle("PATCH /households/{householdId}", member(s.householdH.Update))
	mux.Handle("POST /households/{householdId}/members", member(s.householdH.AddMember))

	// Categories
	mux.Handle("GET /households/{householdId}/categories", member(s.categoryH.List))
	mux.Handle("POST /households/{householdId}/categories", member(s.categoryH.Create))
	mux.Handle("GET /households/{householdId}/categories/{id}", member(s.categoryH.Get))
	mux.Handle("PATCH /households/{householdId}/categories/{id}", member(s.categoryH.Update))
	mux.Handle("DELETE /households/{householdId}/categories/{id}", member(s.categoryH.Delete))

	// Chores
	mux.Handle("GET /households/{householdId}/chores", member(s.choreH.List))
	mux.Handle("POST /households/{householdId}/chores", member(s.choreH.Create))
	mux.Handle("GET /households/{householdId}/chores/{id}", member(s.choreH.Get))
	mux.Handle("PATCH /households/{householdId}/chores/{id}", member(s.choreH.Update))
	mux.Handle("DELETE /households/{householdId}/chores/{id}", member(s.choreH.Delete))

	// Registry
	mux.Handle("GET /households/{householdId}/registry", member(s.registryH.List))
	mux.Handle("POST /households/{householdId}/registry", member(s.registryH.Create))
	mux.Handle("POST /households/{householdId}/registry/batch", member(s.registryH.CreateBatch))

	// Change feed
	mux.Handle("GET /households/{householdId}/ws", member(ws.HandleWebSocket(s.hub, s.corsOrigins, s.logger.With("component", "websocket"))))
}
