package api

import (
	"net/http"
	"time"

	"github.com/ashureev/datequiz/internal/display"
	"github.com/ashureev/datequiz/internal/identity"
	"github.com/ashureev/datequiz/internal/middleware"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/ashureev/datequiz/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries what NewRouter wires together.
type RouterConfig struct {
	Dispatcher     *skill.Dispatcher
	Repo           store.Repository
	Hub            *display.Hub
	AllowedOrigins []string
	IsDev          bool
	HealthTimeout  time.Duration
	// RequestLog enables chi's request logger.
	RequestLog bool
}

// NewRouter builds the HTTP router for the quiz server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if cfg.RequestLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.IsDev))

	NewHealthHandler(cfg.Repo, cfg.HealthTimeout).RegisterHealth(r)

	var closer SessionCloser
	if cfg.Hub != nil {
		closer = cfg.Hub
	}
	NewHandler(cfg.Dispatcher, cfg.Repo, closer).RegisterRoutes(r)

	if cfg.Hub != nil {
		r.Get("/ws/display", display.NewWebSocketHandler(cfg.Hub, cfg.AllowedOrigins, cfg.IsDev).ServeHTTP)
	}

	r.Handle("/*", web.Handler())
	return r
}
