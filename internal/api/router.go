package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rosterhq/roster/internal/api/handler"
	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/auth"
	"github.com/rosterhq/roster/internal/profile"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Identity    handler.IdentityChecker
	Verifier    auth.Verifier
	Profiles    profile.Repository
	Provisioner handler.Provisioner
	// Authenticator and TokenIssuer enable POST /auth/token when both are set.
	Authenticator      handler.Authenticator
	TokenIssuer        handler.TokenIssuer
	Version            string
	OpenAPISpec        []byte
	CORSAllowedOrigins []string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(corsOptions(deps.CORSAllowedOrigins)))

	// Bare OPTIONS requests that are not CORS pre-flights still succeed.
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Identity, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Authenticator != nil && deps.TokenIssuer != nil {
		tokenHandler := handler.NewTokenHandler(deps.Authenticator, deps.TokenIssuer)
		r.Post("/auth/token", tokenHandler.Create)
	}

	if deps.Verifier != nil && deps.Profiles != nil && deps.Provisioner != nil {
		userHandler := handler.NewUserHandler(deps.Provisioner)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Verifier))
			r.Use(middleware.RequireProfile(deps.Profiles))

			r.Post("/users", userHandler.Create)
			r.Post("/create-user", userHandler.Create)
			r.Get("/users/me", userHandler.Me)
		})
	}

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
}
