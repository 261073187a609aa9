package validation

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/rosterhq/roster/internal/profile"
)

// Client-facing messages, listed from highest to lowest priority.
const (
	MsgMissingFields    = "Missing required fields"
	MsgInvalidRole      = "Invalid role"
	MsgOfficeRequired   = "office_id is required for non-director roles"
	MsgLeadNotEmployee  = "Only employees can be leads"
	MsgInvalidEmail     = "Invalid email"
	MsgInvalidReportsTo = "reporting_to_id must be a valid UUID"
)

var messageRank = map[string]int{
	MsgMissingFields:    1,
	MsgInvalidRole:      2,
	MsgOfficeRequired:   3,
	MsgLeadNotEmployee:  4,
	MsgInvalidEmail:     5,
	MsgInvalidReportsTo: 6,
}

// CreateUserRequest mirrors the fields needed for create user validation.
// Optional fields absent from the body are empty strings.
type CreateUserRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Role          string `json:"role" validate:"required,oneof=director manager employee"`
	OfficeID      string `json:"office_id" validate:"required_unless=Role director"`
	ReportingToID string `json:"reporting_to_id" validate:"omitempty,uuid"`
	IsLead        bool   `json:"is_lead"`
}

var userValidator = newUserValidator()

func newUserValidator() *validator.Validate {
	v := newValidator()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(CreateUserRequest)
		if req.IsLead && req.Role != string(profile.RoleEmployee) {
			sl.ReportError(req.IsLead, "is_lead", "IsLead", "lead_employee", "")
		}
	}, CreateUserRequest{})
	return v
}

// ValidateCreateUserRequest validates the fields of a create user request.
// Errors are ordered by priority; the first one is what the client sees.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	errs := fieldErrors(userValidator, req, createUserMessage)
	sort.SliceStable(errs, func(i, j int) bool {
		return rank(errs[i].Message) < rank(errs[j].Message)
	})
	return errs
}

func createUserMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgMissingFields
	case "oneof":
		return MsgInvalidRole
	case "required_unless":
		return MsgOfficeRequired
	case "lead_employee":
		return MsgLeadNotEmployee
	case "email":
		return MsgInvalidEmail
	case "uuid":
		return MsgInvalidReportsTo
	default:
		return fe.Field() + " is invalid"
	}
}

func rank(message string) int {
	if r, ok := messageRank[message]; ok {
		return r
	}
	return len(messageRank) + 1
}
