package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rosterhq/roster/internal/api/response"
	"github.com/rosterhq/roster/internal/auth"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
)

const (
	principalKey contextKey = "principal"
	callerKey    contextKey = "caller"
)

// Auth is middleware that extracts the bearer token from the Authorization
// header and resolves it to a Principal. Missing or invalid tokens return 401.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Err(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					response.Err(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				Logger(r.Context()).Error("token verification failed", "error", err)
				response.Err(w, http.StatusInternalServerError, "Authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireProfile is middleware that loads the authenticated principal's
// profile. A principal without a profile gets 404.
func RequireProfile(profiles profile.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				response.Err(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			p, err := profiles.GetByID(r.Context(), principal.ID)
			if err != nil {
				if errors.Is(err, profile.ErrProfileNotFound) {
					response.Err(w, http.StatusNotFound, "User not found")
					return
				}
				Logger(r.Context()).Error("failed to load caller profile", "principalId", principal.ID, "error", err)
				response.Err(w, http.StatusInternalServerError, "An unexpected error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated Principal from the request context.
func GetPrincipal(ctx context.Context) *identity.Principal {
	if p, ok := ctx.Value(principalKey).(*identity.Principal); ok {
		return p
	}
	return nil
}

// GetCaller retrieves the caller's profile from the request context.
func GetCaller(ctx context.Context) *profile.Profile {
	if p, ok := ctx.Value(callerKey).(*profile.Profile); ok {
		return p
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
