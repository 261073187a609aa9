package profile

import (
	"time"

	"github.com/google/uuid"
)

// Role is a position in the organisation hierarchy.
type Role string

const (
	RoleDirector Role = "director"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Status is the activation state of an account.
type Status string

const (
	StatusActive          Status = "active"
	StatusInactive        Status = "inactive"
	StatusPendingApproval Status = "pending_approval"
)

// ApprovalStatus records whether a director has signed off on the account.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
)

// Profile represents a row in the users table. Its ID is the identity
// provider's principal id. The JSON form is the API and audit snapshot shape.
type Profile struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	FullName       string         `json:"full_name"`
	Role           Role           `json:"role"`
	PhoneNumber    *string        `json:"phone_number"`
	OfficeID       *string        `json:"office_id"` // nil only for directors
	IsLead         bool           `json:"is_lead"`
	ReportingToID  *uuid.UUID     `json:"reporting_to_id"`
	Status         Status         `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	AddedBy        *uuid.UUID     `json:"added_by"` // nil for the bootstrap director
	AddedTime      time.Time      `json:"added_time"`
	ApprovedBy     *uuid.UUID     `json:"approved_by"`
	ApprovedTime   *time.Time     `json:"approved_time"`
}

// Approved reports whether the profile carries a director approval.
func (p *Profile) Approved() bool {
	return p.ApprovalStatus == ApprovalApproved
}

// Active reports whether the account may act in the system.
func (p *Profile) Active() bool {
	return p.Status == StatusActive
}
