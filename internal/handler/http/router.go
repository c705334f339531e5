package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/auth"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/service"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/health"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/middleware"
)

// NewRouter creates a chi router with all auth server routes registered.
func NewRouter(
	sessions *service.SessionService,
	users *service.UserService,
	codec *auth.TokenCodec,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	requestTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("auth"))
	r.Use(middleware.Deadline(requestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Session endpoints (public)
	authHandler := NewAuthHandler(sessions, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// Account endpoints (auth required)
	userHandler := NewUserHandler(users, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Authenticate(codec))
		r.Use(RequireUser(users))

		r.Get("/findById/{id}", userHandler.FindByID)
		r.Patch("/update", userHandler.Update)
		r.Delete("/delete/{id}", userHandler.Delete)
		r.Post("/createMany", userHandler.CreateMany)
	})

	// Token record endpoints (auth required)
	r.Route("/api/v1/tokens", func(r chi.Router) {
		r.Use(Authenticate(codec))
		r.Use(RequireUser(users))

		r.Get("/findById/{id}", userHandler.FindTokenByID)
		r.Delete("/delete/{id}", userHandler.DeleteTokenByID)
	})

	return r
}
