package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
)

type stubVerifier struct {
	principal *identity.Principal
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (*identity.Principal, error) {
	return s.principal, nil
}

type stubProfiles struct {
	caller *profile.Profile
}

func (s *stubProfiles) Create(_ context.Context, _ *profile.Profile) error { return nil }

func (s *stubProfiles) GetByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if s.caller == nil || s.caller.ID != id {
		return nil, profile.ErrProfileNotFound
	}
	return s.caller, nil
}

func (s *stubProfiles) GetByEmail(_ context.Context, _ string) (*profile.Profile, error) {
	return nil, profile.ErrProfileNotFound
}

func (s *stubProfiles) CountAll(_ context.Context) (int, error) { return 1, nil }

// serveAs runs h behind the auth middleware with caller as the authenticated profile.
func serveAs(t *testing.T, h http.HandlerFunc, caller *profile.Profile, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	chain := middleware.Auth(&stubVerifier{principal: &identity.Principal{ID: caller.ID, Email: caller.Email}})(
		middleware.RequireProfile(&stubProfiles{caller: caller})(h),
	)

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func strPtr(s string) *string { return &s }

func activeProfile(role profile.Role, office string, isLead bool) *profile.Profile {
	p := &profile.Profile{
		ID:             uuid.New(),
		Email:          string(role) + "@example.com",
		FullName:       "Caller " + string(role),
		Role:           role,
		IsLead:         isLead,
		Status:         profile.StatusActive,
		ApprovalStatus: profile.ApprovalApproved,
	}
	if office != "" {
		p.OfficeID = strPtr(office)
	}
	return p
}
