package handler

import (
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/api/response"
)

// OpenAPIHandler serves the embedded API description as JSON.
type OpenAPIHandler struct {
	rawYAML  []byte
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
}

// NewOpenAPIHandler creates a handler for the given YAML document. Conversion
// happens once, on the first request.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := middleware.Logger(r.Context())

	h.jsonOnce.Do(func() {
		h.jsonSpec, h.jsonErr = yaml.YAMLToJSON(h.rawYAML)
		if h.jsonErr == nil {
			logger.Debug("converted OpenAPI document", "bytes", len(h.jsonSpec))
		}
	})

	if h.jsonErr != nil {
		logger.Error("failed to convert OpenAPI spec to JSON", "error", h.jsonErr)
		response.Err(w, http.StatusInternalServerError, "Failed to convert OpenAPI spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		logger.Warn("failed to write OpenAPI response", "error", err)
	}
}
