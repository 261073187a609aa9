package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/api/middleware"
	"github.com/rosterhq/roster/internal/api/response"
	"github.com/rosterhq/roster/internal/api/validation"
	"github.com/rosterhq/roster/internal/decision"
	"github.com/rosterhq/roster/internal/profile"
	"github.com/rosterhq/roster/internal/provisioning"
)

const msgUnexpected = "An unexpected error occurred"

// Provisioner creates accounts on behalf of a caller.
type Provisioner interface {
	CheckEligibility(caller *profile.Profile) error
	Provision(ctx context.Context, caller *profile.Profile, req provisioning.Request) (*provisioning.Result, error)
}

type createUserRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FullName      string  `json:"full_name"`
	Role          string  `json:"role"`
	PhoneNumber   *string `json:"phone_number"`
	OfficeID      *string `json:"office_id"`
	ReportingToID *string `json:"reporting_to_id"`
	IsLead        bool    `json:"is_lead"`
}

type createUserResponse struct {
	*profile.Profile
	NeedsApproval bool   `json:"needsApproval"`
	Message       string `json:"message"`
}

// UserHandler handles account creation and lookup endpoints.
type UserHandler struct {
	provisioner Provisioner
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(provisioner Provisioner) *UserHandler {
	return &UserHandler{provisioner: provisioner}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := middleware.Logger(r.Context())

	caller := middleware.GetCaller(r.Context())
	if caller == nil {
		response.Err(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	logger.Info("create user request",
		"callerId", caller.ID,
		"email", req.Email,
		"role", req.Role,
		"officeId", deref(req.OfficeID),
		"isLead", req.IsLead,
		"phoneNumber", redact(req.PhoneNumber),
	)

	if err := h.provisioner.CheckEligibility(caller); err != nil {
		response.Err(w, http.StatusForbidden, forbiddenMessage(err))
		return
	}

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Email:         req.Email,
		Password:      req.Password,
		FullName:      req.FullName,
		Role:          req.Role,
		OfficeID:      deref(req.OfficeID),
		ReportingToID: deref(req.ReportingToID),
		IsLead:        req.IsLead,
	})
	if len(fieldErrors) > 0 {
		response.Err(w, http.StatusBadRequest, fieldErrors[0].Message)
		return
	}

	res, err := h.provisioner.Provision(r.Context(), caller, toProvisioningRequest(req))
	if err != nil {
		var upErr *provisioning.UpstreamError
		switch {
		case errors.Is(err, provisioning.ErrForbidden):
			response.Err(w, http.StatusForbidden, forbiddenMessage(err))
		case errors.As(err, &upErr):
			logger.Warn("account creation failed",
				"step", upErr.Step,
				"outcome", upErr.Outcome.String(),
				"error", upErr.Err,
			)
			response.Err(w, http.StatusBadRequest, upErr.Message())
		default:
			logger.Error("failed to create user", "error", err)
			response.Err(w, http.StatusInternalServerError, msgUnexpected)
		}
		return
	}

	logger.Info("user created",
		"userId", res.Profile.ID,
		"approvalStatus", res.Profile.ApprovalStatus,
		"needsApproval", res.NeedsApproval,
	)

	response.JSON(w, http.StatusOK, createUserResponse{
		Profile:       res.Profile,
		NeedsApproval: res.NeedsApproval,
		Message:       res.Message,
	})
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	if caller == nil {
		response.Err(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	response.JSON(w, http.StatusOK, caller)
}

// toProvisioningRequest converts an already validated body.
func toProvisioningRequest(req createUserRequest) provisioning.Request {
	out := provisioning.Request{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        profile.Role(req.Role),
		PhoneNumber: emptyToNil(req.PhoneNumber),
		OfficeID:    emptyToNil(req.OfficeID),
		IsLead:      req.IsLead,
	}
	if s := deref(req.ReportingToID); s != "" {
		id := uuid.MustParse(s)
		out.ReportingToID = &id
	}
	return out
}

func forbiddenMessage(err error) string {
	switch {
	case errors.Is(err, decision.ErrCallerIneligible):
		return decision.ErrCallerIneligible.Error()
	case errors.Is(err, decision.ErrInsufficientPermissions):
		return decision.ErrInsufficientPermissions.Error()
	default:
		return "Forbidden"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func redact(s *string) string {
	if s == nil || *s == "" {
		return "[NOT PROVIDED]"
	}
	return "[PRESENT]"
}
