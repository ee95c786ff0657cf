// Package rest wires the HTTP surface: the JSON API, the session WebSocket,
// health checks and the static web bundle.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"coursegraph/interfaces/http/rest/handlers"
	"coursegraph/interfaces/http/rest/middleware"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

// readyTimeout bounds all readiness checks of one request
const readyTimeout = 2 * time.Second

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	AllowedOrigins []string
	StaticDir      string
	SessionTTL     time.Duration
}

// ReadinessCheck is one dependency checked by /ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// SessionEndpoint upgrades a request to the graph session WebSocket
type SessionEndpoint interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

// Handlers groups the API handlers mounted by the router
type Handlers struct {
	Auth      *handlers.AuthHandler
	Graph     *handlers.GraphHandler
	Documents *handlers.DocumentHandler
	Voice     *handlers.VoiceHandler
	Sessions  SessionEndpoint
}

// Router creates and configures the HTTP router
type Router struct {
	config   RouterConfig
	handlers Handlers
	resolver middleware.UserResolver
	cache    middleware.UserCache
	limiter  *auth.IPRateLimiter
	metrics  http.Handler
	recorder middleware.HTTPRecorder
	checks   []ReadinessCheck
	logger   *zap.Logger
}

// NewRouter creates a new router instance. A nil metrics handler leaves
// /metrics unmounted.
func NewRouter(
	config RouterConfig,
	h Handlers,
	resolver middleware.UserResolver,
	cache middleware.UserCache,
	limiter *auth.IPRateLimiter,
	metrics http.Handler,
	recorder middleware.HTTPRecorder,
	checks []ReadinessCheck,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:   config,
		handlers: h,
		resolver: resolver,
		cache:    cache,
		limiter:  limiter,
		metrics:  metrics,
		recorder: recorder,
		checks:   checks,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger, rt.recorder))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Graph-Placeholder"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics)
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			h := rt.handlers.Auth
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rt.limiter, rt.logger))
				r.Post("/signup", h.SignUp)
				r.Post("/confirm", h.Confirm)
				r.Post("/login", h.Login)
			})
			r.With(middleware.EndSession(rt.cache)).Post("/logout", h.Logout)
			r.Get("/user", h.User)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(rt.resolver, rt.cache, rt.config.SessionTTL, rt.logger))

			r.Get("/graph", rt.handlers.Graph.GetGraph)

			r.Route("/documents", func(r chi.Router) {
				h := rt.handlers.Documents
				r.Post("/", h.Upload)
				r.Delete("/{pdfID}", h.Delete)
				r.Get("/{pdfID}/download-url", h.DownloadURL)
			})

			r.Get("/voice/assistant", rt.handlers.Voice.Assistant)
			r.Get("/session/ws", rt.handlers.Sessions.HandleWebSocket)
		})
	})

	if rt.config.StaticDir != "" {
		router.Handle("/*", middleware.RouteGuard(newStaticSite(rt.config.StaticDir)))
	}

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// readinessCheck reports 503 while any dependency check fails
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
	defer cancel()

	body := readiness{Status: "ready"}
	status := http.StatusOK
	for _, c := range rt.checks {
		if err := c.Check(ctx); err != nil {
			if body.Checks == nil {
				body.Checks = make(map[string]string)
			}
			body.Checks[c.Name] = pkgerrors.MessageOf(err, err.Error())
			body.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rt.logger.Error("Failed to encode readiness", zap.Error(err))
	}
}
