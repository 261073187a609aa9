package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/api/response"
	"github.com/rosterhq/roster/internal/identity"
)

// Authenticator checks an email/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Principal, error)
}

// TokenIssuer signs access tokens for a principal.
type TokenIssuer interface {
	Issue(p *identity.Principal) (string, time.Time, error)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

// TokenHandler handles POST /auth/token for locally managed principals.
type TokenHandler struct {
	authenticator Authenticator
	issuer        TokenIssuer
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(authenticator Authenticator, issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{authenticator: authenticator, issuer: issuer}
}

// Create exchanges credentials for a bearer token.
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Err(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		middleware.Logger(r.Context()).Error("failed to authenticate", "error", err)
		response.Err(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	token, expiresAt, err := h.issuer.Issue(principal)
	if err != nil {
		middleware.Logger(r.Context()).Error("failed to issue token", "error", err)
		response.Err(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	response.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
}
