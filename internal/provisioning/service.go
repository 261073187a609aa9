// Package provisioning creates subordinate accounts: it authorizes the
// request, writes the principal and profile through a compensating saga and
// records an audit entry.
package provisioning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/activity"
	"github.com/rosterhq/roster/internal/decision"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
)

// Client-facing result messages.
const (
	MessageApproved = "User created and approved successfully."
	MessagePending  = "User created successfully. Director approval required before activation."
)

// Request is a validated account creation request.
type Request struct {
	Email         string
	Password      string
	FullName      string
	Role          profile.Role
	PhoneNumber   *string
	OfficeID      *string
	ReportingToID *uuid.UUID
	IsLead        bool
}

// Result is a successfully created account.
type Result struct {
	Profile       *profile.Profile
	NeedsApproval bool
	Message       string
	Outcome       Outcome
}

// Deps are the collaborators of a Service.
type Deps struct {
	Engine     *decision.Engine
	Identities identity.Provider
	Profiles   profile.Repository
	Activity   activity.Sink
	// PendingStatus is the status given to accounts awaiting approval.
	// Defaults to profile.StatusInactive.
	PendingStatus profile.Status
	Clock         func() time.Time
	Logger        *slog.Logger
}

// Service provisions accounts.
type Service struct {
	engine        *decision.Engine
	saga          *Saga
	profiles      profile.Repository
	activity      activity.Sink
	pendingStatus profile.Status
	now           func() time.Time
	logger        *slog.Logger
}

// NewService creates a Service from its dependencies.
func NewService(d Deps) *Service {
	if d.Engine == nil {
		d.Engine = decision.NewEngine(decision.DefaultPolicy())
	}
	if d.PendingStatus == "" {
		d.PendingStatus = profile.StatusInactive
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		engine:        d.Engine,
		saga:          NewSaga(d.Identities, d.Profiles, d.Logger),
		profiles:      d.Profiles,
		activity:      d.Activity,
		pendingStatus: d.PendingStatus,
		now:           d.Clock,
		logger:        d.Logger,
	}
}

// CheckEligibility rejects callers whose own account may not create anyone.
func (s *Service) CheckEligibility(caller *profile.Profile) error {
	if err := s.engine.CheckEligibility(decision.CallerFromProfile(caller)); err != nil {
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return nil
}

// Provision authorizes req for caller and creates the account. Rejections
// wrap ErrForbidden and happen before any external call. Store failures are
// returned as *UpstreamError.
func (s *Service) Provision(ctx context.Context, caller *profile.Profile, req Request) (*Result, error) {
	d := s.engine.Evaluate(decision.CallerFromProfile(caller), decision.Request{
		Role:          req.Role,
		OfficeID:      req.OfficeID,
		IsLead:        req.IsLead,
		ReportingToID: req.ReportingToID,
	})
	if !d.Permitted {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, d.Reason)
	}

	now := s.now().UTC()
	addedBy := caller.ID
	created, outcome, err := s.saga.Run(ctx, req.Email, req.Password, func(principal *identity.Principal) *profile.Profile {
		p := &profile.Profile{
			Email:         req.Email,
			FullName:      req.FullName,
			Role:          req.Role,
			PhoneNumber:   req.PhoneNumber,
			OfficeID:      req.OfficeID,
			IsLead:        req.IsLead,
			ReportingToID: req.ReportingToID,
			AddedBy:       &addedBy,
			AddedTime:     now,
		}
		s.applyApproval(p, d, caller.ID, now)
		return p
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, caller.ID, created, d.AutoApprove)

	res := &Result{
		Profile:       created,
		NeedsApproval: d.NeedsApproval(),
		Message:       MessagePending,
		Outcome:       outcome,
	}
	if d.AutoApprove {
		res.Message = MessageApproved
	}
	return res, nil
}

// applyApproval sets the status and approval fields from the decision.
// Approver fields are set if and only if the account is approved.
func (s *Service) applyApproval(p *profile.Profile, d decision.Decision, approver uuid.UUID, now time.Time) {
	if d.AutoApprove {
		p.Status = profile.StatusActive
		p.ApprovalStatus = profile.ApprovalApproved
		p.ApprovedBy = &approver
		p.ApprovedTime = &now
		return
	}
	p.Status = s.pendingStatus
	p.ApprovalStatus = profile.ApprovalPending
	p.ApprovedBy = nil
	p.ApprovedTime = nil
}

// record writes the audit entry. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, actor uuid.UUID, p *profile.Profile, approved bool) {
	if s.activity == nil {
		return
	}

	entry := &activity.Entry{
		UserID:       actor,
		ActivityType: activity.TypeUserCreatedPending,
		Description:  describeCreation(p, approved),
		EntityID:     &p.ID,
		EntityType:   activity.EntityTypeUser,
		NewData:      p,
	}
	if approved {
		entry.ActivityType = activity.TypeUserCreatedAndApproved
	}

	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record activity", "userId", p.ID, "error", err)
	}
}

func describeCreation(p *profile.Profile, approved bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Created user: %s (%s) with role: %s", p.FullName, p.Email, p.Role)
	if p.IsLead {
		b.WriteString(" (Lead)")
	}
	if approved {
		b.WriteString(" - Auto approved")
	} else {
		b.WriteString(" - Pending approval")
	}
	return b.String()
}
