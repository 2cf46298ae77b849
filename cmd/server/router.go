package main

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api"
	apiMiddleware "github.com/nssuwan186-dev/fullstack-platform/internal/api/middleware"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.Recoverer)

	origins := app.config.Server.CORSOrigins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-Trace-ID"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	userHandler := api.NewUserHandler(app.userService, app.logger)
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	intakeHandler := api.NewIntakeHandler(app.exportService, app.logger)
	fileHandler := api.NewFileHandler(app.artifacts, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userService)
	rateLimiter := apiMiddleware.NewRateLimiter(
		app.config.Intake.RateLimitRPS,
		app.config.Intake.RateLimitBurst,
	)

	r.Get("/", api.Welcome)
	r.Get("/health", api.Health)

	r.Route(app.config.Server.APIPrefix, func(r chi.Router) {
		r.Get("/", api.Welcome)

		r.Post("/users", userHandler.CreateUser)
		r.Post("/users/", userHandler.CreateUser)
		r.Get("/users/search", userHandler.SearchUsers)

		r.Post("/auth/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.With(rateLimiter.Limit).Post("/process/excel", intakeHandler.ProcessExcel)
		r.Get("/process/jobs/{id}", intakeHandler.GetJob)
	})

	r.Get("/files/*", fileHandler.Download)
	r.Get("/static/*", fileHandler.Download)

	return r
}
