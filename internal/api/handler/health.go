package handler

import (
	"context"
	"net/http"

	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/api/response"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IdentityChecker checks identity provider connectivity.
type IdentityChecker interface {
	Check(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db       DBPinger
	identity IdentityChecker
	version  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, identity IdentityChecker, version string) *HealthHandler {
	return &HealthHandler{
		db:       db,
		identity: identity,
		version:  version,
	}
}

type componentStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Database componentStatus `json:"database"`
	Identity componentStatus `json:"identity"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := middleware.Logger(r.Context())

	data := healthData{
		Status:  "healthy",
		Version: h.version,
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			logger.Warn("database ping failed", "error", err)
		} else {
			data.Database.Connected = true
		}
	}

	if h.identity != nil {
		if err := h.identity.Check(r.Context()); err != nil {
			logger.Warn("identity provider check failed", "error", err)
		} else {
			data.Identity.Connected = true
		}
	}

	if !data.Database.Connected || !data.Identity.Connected {
		data.Status = "degraded"
	}

	response.JSON(w, http.StatusOK, data)
}
