package provisioning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
)

// DefaultCompensationTimeout bounds the principal delete issued after a failed profile insert.
const DefaultCompensationTimeout = 10 * time.Second

// Outcome is the terminal state of one saga run.
type Outcome int

const (
	// OutcomeAborted means the principal could not be created; nothing was written.
	OutcomeAborted Outcome = iota
	// OutcomeCommitted means both the principal and the profile exist.
	OutcomeCommitted
	// OutcomeRolledBack means the profile insert failed and the principal was deleted.
	OutcomeRolledBack
	// OutcomeRollbackFailed means the profile insert failed and the principal
	// could not be deleted. The principal exists without a profile.
	OutcomeRollbackFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeRollbackFailed:
		return "rollback_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// BuildProfileFunc produces the profile row for a freshly created principal.
type BuildProfileFunc func(principal *identity.Principal) *profile.Profile

// Saga writes a principal and its profile as one unit across two stores
// that share no transaction. A failed profile insert deletes the principal.
type Saga struct {
	identities          identity.Provider
	profiles            profile.Repository
	logger              *slog.Logger
	compensationTimeout time.Duration
}

// NewSaga creates a Saga. A nil logger uses slog.Default().
func NewSaga(identities identity.Provider, profiles profile.Repository, logger *slog.Logger) *Saga {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saga{
		identities:          identities,
		profiles:            profiles,
		logger:              logger,
		compensationTimeout: DefaultCompensationTimeout,
	}
}

// Run creates the principal, then inserts the profile built for it. On
// success the stored profile is returned. Any failure is an *UpstreamError
// whose Outcome tells whether compensation succeeded.
func (s *Saga) Run(ctx context.Context, email, password string, build BuildProfileFunc) (*profile.Profile, Outcome, error) {
	principal, err := s.identities.CreatePrincipal(ctx, email, password)
	if err != nil {
		return nil, OutcomeAborted, &UpstreamError{Step: StepIdentity, Outcome: OutcomeAborted, Err: err}
	}

	p := build(principal)
	p.ID = principal.ID

	if err := s.profiles.Create(ctx, p); err != nil {
		outcome := s.compensate(ctx, principal.ID, err)
		return nil, outcome, &UpstreamError{Step: StepProfile, Outcome: outcome, Err: err}
	}

	return p, OutcomeCommitted, nil
}

// compensate deletes the principal even when the request context is already cancelled.
func (s *Saga) compensate(ctx context.Context, principalID uuid.UUID, cause error) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	if err := s.identities.DeletePrincipal(ctx, principalID); err != nil {
		s.logger.Error("failed to delete principal after profile insert failure",
			"principalId", principalID,
			"cause", cause,
			"error", err,
		)
		return OutcomeRollbackFailed
	}

	s.logger.Warn("profile insert failed, principal deleted",
		"principalId", principalID,
		"error", cause,
	)
	return OutcomeRolledBack
}
