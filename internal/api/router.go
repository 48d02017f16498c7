package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/api/handlers"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/config"
	"github.com/jobsterhq/jobster-be/internal/mail"
	"github.com/jobsterhq/jobster-be/internal/models"
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/jobsterhq/jobster-be/internal/websocket"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	DB          *sql.DB
	Tokens      *auth.TokenService
	Mailer      mail.Mailer
	Hub         *websocket.Hub
	UserService services.UserServiceProvider
	JobService  services.JobServiceProvider
}

// NewRouter creates and configures the Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.UserService, d.Tokens, d.Mailer,
		d.Config.CookieExpiry, d.Config.ResetTokenTTL, d.Config.IsProduction())
	userHandler := handlers.NewUserHandler(d.UserService)
	jobHandler := handlers.NewJobHandler(d.JobService, d.Config.MaxUploadSize)
	healthHandler := handlers.NewHealthHandler(d.DB)
	wsHandler := handlers.NewWebSocketHandler(d.Hub)

	authenticate := auth.Authenticator(d.Tokens)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)
		r.Get("/ws", wsHandler.Serve)

		// Public job routes
		r.Get("/jobs", jobHandler.List)
		r.Get("/job/{id}/{slug}", jobHandler.Get)
		r.Get("/jobs/{zipcode}/{distance}", jobHandler.InRadius)
		r.Get("/stats/{topic}", jobHandler.Stats)

		// Session routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/password/forgot", authHandler.ForgotPassword)
		r.Put("/password/reset/{token}", authHandler.ResetPassword)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/logout", authHandler.Logout)

			r.Get("/me", userHandler.GetMe)
			r.Put("/me/update", userHandler.UpdateMe)
			r.Put("/password/update", userHandler.UpdatePassword)
			r.Delete("/me/delete", userHandler.DeleteMe)

			r.With(auth.RequireRoles(models.RoleEmployer, models.RoleAdmin)).
				Post("/job/new", jobHandler.Create)
			r.With(auth.RequireRoles(models.RoleEmployer, models.RoleAdmin)).
				Put("/job/{id}", jobHandler.Update)
			r.With(auth.RequireRoles(models.RoleEmployer, models.RoleAdmin)).
				Delete("/job/{id}", jobHandler.Delete)
			r.With(auth.RequireRoles(models.RoleApplicant)).
				Put("/job/{id}/apply", jobHandler.Apply)

			r.With(auth.RequireRoles(models.RoleApplicant)).
				Get("/jobs/applied", jobHandler.Applied)
			r.With(auth.RequireRoles(models.RoleEmployer, models.RoleAdmin)).
				Get("/jobs/published", jobHandler.Published)

			// Admin routes
			r.With(auth.RequireRoles(models.RoleAdmin)).
				Get("/users", userHandler.List)
			r.With(auth.RequireRoles(models.RoleAdmin)).
				Delete("/user/{id}", userHandler.Delete)
		})
	})

	// Unmatched routes go through the centralized translator too.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, r, apperror.NewNotFound(r.URL.Path+" route not found", nil))
	})

	return r
}
