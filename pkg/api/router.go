package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/auth"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/handlers"
	apimiddleware "github.com/hardikhari96/sftp-cloud-connector/pkg/api/middleware"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// NewRouter builds the admin API routing tree.
//
// Unauthenticated surface: GET /health, GET /status. Everything under
// /api/v1 except the login endpoint requires a valid bearer token, and the
// management routes additionally require the admin role.
func NewRouter(jwtService *auth.JWTService, s store.Store, sessions handlers.SessionLister, homeRoot string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler()
	statusHandler := handlers.NewStatusHandler(s, sessions)
	authHandler := handlers.NewAuthHandler(s, jwtService)
	userHandler := handlers.NewUserHandler(s, homeRoot)
	connectionHandler := handlers.NewConnectionHandler(s)
	analyticsHandler := handlers.NewAnalyticsHandler(s)

	r.Get("/health", healthHandler.Liveness)
	r.Get("/status", statusHandler.Page)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/status", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.JWTAuth(jwtService))

			r.Get("/auth/me", authHandler.Me)
			r.Get("/me/connections", connectionHandler.Mine)

			// Non-admin callers get their own rows only.
			r.Get("/analytics/summary", analyticsHandler.Summary)

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireAdmin())

				r.Route("/users", func(r chi.Router) {
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Get("/{id}", userHandler.Get)
					r.Patch("/{id}", userHandler.Update)
					r.Put("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
				})

				r.Get("/connections", connectionHandler.List)
			})
		})
	})

	return r
}

// requestLogger logs requests through the internal logger. Health probes are
// kept at DEBUG to reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		args := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		}
		if r.URL.Path == "/health" {
			logger.Debug("API request", args...)
			return
		}
		logger.Info("API request", args...)
	})
}
