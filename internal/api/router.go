package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/athenaeum/moirai/internal/api/handler"
	"github.com/athenaeum/moirai/internal/api/middleware"
	"github.com/athenaeum/moirai/internal/services/auth"
	"github.com/athenaeum/moirai/internal/services/profile"
	"github.com/athenaeum/moirai/internal/services/relay"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	RelayService   *relay.Service
	ProfileService *profile.Service

	// AllowedOrigins for CORS. Empty means local development defaults.
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	fragmentHandler := handler.NewFragmentHandler(cfg.RelayService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	eventsHandler := handler.NewEventsHandler(cfg.ProfileService, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes (no auth required for signing in)
	api.HandleFunc("/auth/guest", authHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/token", authHandler.TokenLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/provider", authHandler.ProviderLogin).Methods(http.MethodPost)

	// Protected auth routes
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware)
	authProtected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// User routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/me", authHandler.GetMe).Methods(http.MethodGet)

	// Fragment routes
	fragments := api.PathPrefix("/fragments").Subrouter()
	fragments.Use(authMiddleware)
	fragments.HandleFunc("", fragmentHandler.Generate).Methods(http.MethodPost)

	// Profile routes
	profiles := api.PathPrefix("/profile").Subrouter()
	profiles.Use(authMiddleware)
	profiles.HandleFunc("", profileHandler.Get).Methods(http.MethodGet)
	profiles.HandleFunc("", profileHandler.Put).Methods(http.MethodPut)
	profiles.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Legacy route the existing web client calls. Same handler and body
	// as /api/v1/fragments, kept unauthenticated for compatibility.
	legacy := r.PathPrefix("/api").Subrouter()
	legacy.Use(recoveryMiddleware)
	legacy.Use(loggingMiddleware)
	legacy.HandleFunc("/generate-fragment", fragmentHandler.Generate).Methods(http.MethodPost)

	return corsHandler(cfg.AllowedOrigins)(r)
}

// corsHandler builds the CORS wrapper for browser clients
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"}
	}
	// Methods and headers cover exactly the routes the browser client
	// calls: GET/PUT profile, GET events and users/me with a bearer
	// token, POST auth and fragments.
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
