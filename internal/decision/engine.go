// Package decision decides whether a caller may create an account with the
// requested attributes and whether that account is approved on creation.
// It performs no I/O.
package decision

import (
	"errors"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/profile"
)

// ErrCallerIneligible is returned when the caller's own account is not active and approved.
var ErrCallerIneligible = errors.New("Forbidden - User not active or approved")

// ErrInsufficientPermissions is returned when no rule of the role matrix permits the request.
var ErrInsufficientPermissions = errors.New("Forbidden - Insufficient permissions")

// LeadScope selects which accounts an employee lead may create.
type LeadScope string

const (
	// LeadScopeOffice lets a lead create employees in the lead's own office.
	LeadScopeOffice LeadScope = "office"
	// LeadScopeReportingTo lets a lead create employees that report to the lead.
	LeadScopeReportingTo LeadScope = "reportingTo"
)

// Policy holds the deployment-specific knobs of the rule set.
type Policy struct {
	LeadScope           LeadScope
	RequireCallerActive bool
}

// DefaultPolicy is the strict rule set: office-scoped leads and an eligibility gate.
func DefaultPolicy() Policy {
	return Policy{
		LeadScope:           LeadScopeOffice,
		RequireCallerActive: true,
	}
}

// Caller is the part of the requesting user's profile the rules look at.
type Caller struct {
	ID             uuid.UUID
	Role           profile.Role
	IsLead         bool
	OfficeID       *string
	Status         profile.Status
	ApprovalStatus profile.ApprovalStatus
}

// CallerFromProfile extracts a Caller from a stored profile.
func CallerFromProfile(p *profile.Profile) Caller {
	return Caller{
		ID:             p.ID,
		Role:           p.Role,
		IsLead:         p.IsLead,
		OfficeID:       p.OfficeID,
		Status:         p.Status,
		ApprovalStatus: p.ApprovalStatus,
	}
}

// Request is the part of the requested account the rules look at.
type Request struct {
	Role          profile.Role
	OfficeID      *string
	IsLead        bool
	ReportingToID *uuid.UUID
}

// Decision is the outcome of evaluating a request.
type Decision struct {
	Permitted   bool
	AutoApprove bool
	Reason      error // set when !Permitted
}

// NeedsApproval reports whether the created account waits for a director.
func (d Decision) NeedsApproval() bool {
	return !d.AutoApprove
}

func deny(reason error) Decision {
	return Decision{Reason: reason}
}

// Engine evaluates requests under a fixed Policy.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine. An empty LeadScope falls back to LeadScopeOffice.
func NewEngine(policy Policy) *Engine {
	if policy.LeadScope == "" {
		policy.LeadScope = LeadScopeOffice
	}
	return &Engine{policy: policy}
}

// Policy returns the rule set the engine applies.
func (e *Engine) Policy() Policy {
	return e.policy
}

// CheckEligibility rejects callers whose own account is not active and
// approved. It always passes when the policy does not gate callers.
func (e *Engine) CheckEligibility(c Caller) error {
	if !e.policy.RequireCallerActive {
		return nil
	}
	if c.Status != profile.StatusActive || c.ApprovalStatus != profile.ApprovalApproved {
		return ErrCallerIneligible
	}
	return nil
}

// Evaluate applies the eligibility gate and then the role matrix; the first
// matching rule wins.
func (e *Engine) Evaluate(c Caller, r Request) Decision {
	if err := e.CheckEligibility(c); err != nil {
		return deny(err)
	}

	switch {
	case c.Role == profile.RoleDirector:
		return Decision{Permitted: true, AutoApprove: true}

	case c.Role == profile.RoleManager:
		if r.Role == profile.RoleEmployee && sameOffice(c.OfficeID, r.OfficeID) {
			return Decision{Permitted: true}
		}

	case c.Role == profile.RoleEmployee && c.IsLead:
		if r.Role == profile.RoleEmployee && e.inLeadScope(c, r) {
			return Decision{Permitted: true}
		}
	}

	return deny(ErrInsufficientPermissions)
}

func (e *Engine) inLeadScope(c Caller, r Request) bool {
	if e.policy.LeadScope == LeadScopeReportingTo {
		return r.ReportingToID != nil && *r.ReportingToID == c.ID
	}
	return sameOffice(c.OfficeID, r.OfficeID)
}

// sameOffice is false when either side has no office.
func sameOffice(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}
