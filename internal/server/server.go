package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskdeck/internal/auth"
	"github.com/dukerupert/taskdeck/internal/handler"
	"github.com/dukerupert/taskdeck/internal/middleware"
	"github.com/dukerupert/taskdeck/internal/store"
	ws "github.com/dukerupert/taskdeck/internal/websocket"
)

// Config carries the externally supplied settings the server needs.
type Config struct {
	// Secret signs and verifies bearer tokens. Required.
	Secret []byte
	// CORSOrigin is the single browser origin allowed to call the API.
	CORSOrigin string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authH       *handler.AuthHandler
	taskH       *handler.TaskHandler
	userStore   *store.UserStore
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	loginLimiter := auth.NewLoginLimiter(auth.DefaultFailureLimit)

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(userStore, loginLimiter, cfg.Secret, logger.With("component", "auth")),
		taskH:       handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		userStore:   userStore,
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// RateLimiter returns the per-IP limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes: registration and login skip the access guard but
	// pass through the per-IP limiter.
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.cfg.Secret, s.userStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	h := middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	return middleware.CORS(s.cfg.CORSOrigin)(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/profile", s.authH.Profile)

	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("PATCH /api/tasks/{id}/completed", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Real-time task event stream
	mux.HandleFunc("GET /api/ws", ws.Handle(s.hub))
}
