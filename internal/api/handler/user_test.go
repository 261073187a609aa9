package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rosterhq/roster/internal/api/handler"
	"github.com/rosterhq/roster/internal/decision"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/identity/mocks"
	"github.com/rosterhq/roster/internal/profile"
	"github.com/rosterhq/roster/internal/provisioning"
)

// --- Mock Provisioner ---

type mockProvisioner struct {
	checkFn     func(caller *profile.Profile) error
	provisionFn func(ctx context.Context, caller *profile.Profile, req provisioning.Request) (*provisioning.Result, error)
	calls       int
}

func (m *mockProvisioner) CheckEligibility(caller *profile.Profile) error {
	if m.checkFn != nil {
		return m.checkFn(caller)
	}
	return nil
}

func (m *mockProvisioner) Provision(ctx context.Context, caller *profile.Profile, req provisioning.Request) (*provisioning.Result, error) {
	m.calls++
	if m.provisionFn != nil {
		return m.provisionFn(ctx, caller, req)
	}
	return nil, errors.New("unexpected call")
}

func validBody() map[string]any {
	return map[string]any{
		"email":     "new.hire@example.com",
		"password":  "hunter22",
		"full_name": "New Hire",
		"role":      "employee",
		"office_id": "O1",
	}
}

// ===== POST /users =====

func TestUserCreate_Success(t *testing.T) {
	director := activeProfile(profile.RoleDirector, "O1", false)
	newID := uuid.New()
	now := time.Now().UTC()

	prov := &mockProvisioner{
		provisionFn: func(_ context.Context, caller *profile.Profile, req provisioning.Request) (*provisioning.Result, error) {
			assert.Equal(t, director.ID, caller.ID)
			assert.Equal(t, "new.hire@example.com", req.Email)
			assert.Equal(t, profile.RoleEmployee, req.Role)
			require.NotNil(t, req.OfficeID)
			assert.Equal(t, "O1", *req.OfficeID)
			assert.Nil(t, req.PhoneNumber)
			assert.Nil(t, req.ReportingToID)
			return &provisioning.Result{
				Profile: &profile.Profile{
					ID:             newID,
					Email:          req.Email,
					FullName:       req.FullName,
					Role:           req.Role,
					OfficeID:       req.OfficeID,
					Status:         profile.StatusActive,
					ApprovalStatus: profile.ApprovalApproved,
					AddedBy:        &caller.ID,
					AddedTime:      now,
					ApprovedBy:     &caller.ID,
					ApprovedTime:   &now,
				},
				Message: provisioning.MessageApproved,
				Outcome: provisioning.OutcomeCommitted,
			}, nil
		},
	}
	h := handler.NewUserHandler(prov)

	w := serveAs(t, h.Create, director, http.MethodPost, "/users", validBody())

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, newID.String(), body["id"])
	assert.Equal(t, "new.hire@example.com", body["email"])
	assert.Equal(t, "New Hire", body["full_name"])
	assert.Equal(t, "employee", body["role"])
	assert.Equal(t, "O1", body["office_id"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "approved", body["approval_status"])
	assert.Equal(t, director.ID.String(), body["approved_by"])
	assert.Equal(t, false, body["needsApproval"])
	assert.Equal(t, provisioning.MessageApproved, body["message"])
}

func TestUserCreate_OptionalFieldsMapped(t *testing.T) {
	lead := activeProfile(profile.RoleEmployee, "O1", true)
	reportsTo := uuid.New()

	prov := &mockProvisioner{
		provisionFn: func(_ context.Context, _ *profile.Profile, req provisioning.Request) (*provisioning.Result, error) {
			require.NotNil(t, req.PhoneNumber)
			assert.Equal(t, "+15550100", *req.PhoneNumber)
			require.NotNil(t, req.ReportingToID)
			assert.Equal(t, reportsTo, *req.ReportingToID)
			return &provisioning.Result{
				Profile:       &profile.Profile{ID: uuid.New(), ApprovalStatus: profile.ApprovalPending},
				NeedsApproval: true,
				Message:       provisioning.MessagePending,
			}, nil
		},
	}
	h := handler.NewUserHandler(prov)

	body := validBody()
	body["phone_number"] = "+15550100"
	body["reporting_to_id"] = reportsTo.String()
	w := serveAs(t, h.Create, lead, http.MethodPost, "/users", body)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseBody(t, w)
	assert.Equal(t, true, resp["needsApproval"])
	assert.Equal(t, provisioning.MessagePending, resp["message"])
}

func TestUserCreate_InvalidJSON(t *testing.T) {
	prov := &mockProvisioner{}
	h := handler.NewUserHandler(prov)

	w := serveAs(t, h.Create, activeProfile(profile.RoleDirector, "", false), http.MethodPost, "/users", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body must be valid JSON", parseBody(t, w)["error"])
	assert.Zero(t, prov.calls)
}

func TestUserCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b map[string]any)
		wantMsg string
	}{
		{name: "missing email", mutate: func(b map[string]any) { delete(b, "email") }, wantMsg: "Missing required fields"},
		{name: "invalid role", mutate: func(b map[string]any) { b["role"] = "admin" }, wantMsg: "Invalid role"},
		{name: "office required", mutate: func(b map[string]any) { delete(b, "office_id") }, wantMsg: "office_id is required for non-director roles"},
		{name: "null office", mutate: func(b map[string]any) { b["office_id"] = nil }, wantMsg: "office_id is required for non-director roles"},
		{name: "lead manager", mutate: func(b map[string]any) {
			b["role"] = "manager"
			b["is_lead"] = true
		}, wantMsg: "Only employees can be leads"},
		{name: "bad reporting_to", mutate: func(b map[string]any) { b["reporting_to_id"] = "x" }, wantMsg: "reporting_to_id must be a valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &mockProvisioner{}
			h := handler.NewUserHandler(prov)
			body := validBody()
			tt.mutate(body)

			// A manager would be authorized for the valid version of this request.
			w := serveAs(t, h.Create, activeProfile(profile.RoleManager, "O1", false), http.MethodPost, "/users", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, parseBody(t, w)["error"])
			assert.Zero(t, prov.calls)
		})
	}
}

func TestUserCreate_IneligibleCallerBeforeValidation(t *testing.T) {
	prov := &mockProvisioner{
		checkFn: func(_ *profile.Profile) error {
			return fmt.Errorf("%w: %w", provisioning.ErrForbidden, decision.ErrCallerIneligible)
		},
	}
	h := handler.NewUserHandler(prov)
	body := validBody()
	body["role"] = "admin"

	w := serveAs(t, h.Create, activeProfile(profile.RoleManager, "O1", false), http.MethodPost, "/users", body)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden - User not active or approved", parseBody(t, w)["error"])
	assert.Zero(t, prov.calls)
}

func TestUserCreate_ProvisionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "matrix denial",
			err:        fmt.Errorf("%w: %w", provisioning.ErrForbidden, decision.ErrInsufficientPermissions),
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden - Insufficient permissions",
		},
		{
			name: "identity rejected",
			err: &provisioning.UpstreamError{
				Step:    provisioning.StepIdentity,
				Outcome: provisioning.OutcomeAborted,
				Err:     fmt.Errorf("creating identity: %w", identity.ErrPrincipalExists),
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "A user with this email address has already been registered",
		},
		{
			name: "profile insert failed",
			err: &provisioning.UpstreamError{
				Step:    provisioning.StepProfile,
				Outcome: provisioning.OutcomeRolledBack,
				Err:     fmt.Errorf("inserting profile: %w", &pgconn.PgError{Code: "23514", Message: "check constraint violated"}),
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "check constraint violated",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &mockProvisioner{
				provisionFn: func(_ context.Context, _ *profile.Profile, _ provisioning.Request) (*provisioning.Result, error) {
					return nil, tt.err
				},
			}
			h := handler.NewUserHandler(prov)

			w := serveAs(t, h.Create, activeProfile(profile.RoleManager, "O1", false), http.MethodPost, "/users", validBody())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, parseBody(t, w)["error"])
		})
	}
}

// End to end through the real service: the profile insert fails and the
// principal created moments earlier is deleted.
func TestUserCreate_ProfileFailureRollsBack(t *testing.T) {
	director := activeProfile(profile.RoleDirector, "O1", false)
	principalID := uuid.New()

	identities := mocks.NewMockProvider(gomock.NewController(t))
	gomock.InOrder(
		identities.EXPECT().
			CreatePrincipal(gomock.Any(), "new.hire@example.com", "hunter22").
			Return(&identity.Principal{ID: principalID, Email: "new.hire@example.com"}, nil),
		identities.EXPECT().DeletePrincipal(gomock.Any(), principalID).Return(nil),
	)

	svc := provisioning.NewService(provisioning.Deps{
		Identities: identities,
		Profiles:   &failingProfiles{err: &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}},
	})
	h := handler.NewUserHandler(svc)

	w := serveAs(t, h.Create, director, http.MethodPost, "/users", validBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate key value violates unique constraint", parseBody(t, w)["error"])
}

type failingProfiles struct {
	stubProfiles
	err error
}

func (f *failingProfiles) Create(_ context.Context, _ *profile.Profile) error { return f.err }

// ===== GET /users/me =====

func TestUserMe(t *testing.T) {
	caller := activeProfile(profile.RoleManager, "O1", false)
	h := handler.NewUserHandler(&mockProvisioner{})

	w := serveAs(t, h.Me, caller, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, caller.ID.String(), body["id"])
	assert.Equal(t, "manager", body["role"])
	assert.Equal(t, "O1", body["office_id"])
}
