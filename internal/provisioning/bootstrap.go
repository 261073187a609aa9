package provisioning

import (
	"context"
	"fmt"

	"github.com/rosterhq/roster/internal/activity"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
)

// BootstrapDirector creates the first director when no profile exists yet.
// The director approves itself and has no AddedBy. It returns nil, nil when
// the users table is already populated.
func (s *Service) BootstrapDirector(ctx context.Context, email, password, fullName string) (*profile.Profile, error) {
	n, err := s.profiles.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting profiles: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	now := s.now().UTC()
	created, _, err := s.saga.Run(ctx, email, password, func(principal *identity.Principal) *profile.Profile {
		self := principal.ID
		return &profile.Profile{
			Email:          email,
			FullName:       fullName,
			Role:           profile.RoleDirector,
			Status:         profile.StatusActive,
			ApprovalStatus: profile.ApprovalApproved,
			AddedTime:      now,
			ApprovedBy:     &self,
			ApprovedTime:   &now,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrapping director: %w", err)
	}

	if s.activity != nil {
		err := s.activity.Record(ctx, &activity.Entry{
			UserID:       created.ID,
			ActivityType: activity.TypeUserCreatedAndApproved,
			Description:  fmt.Sprintf("Bootstrapped director: %s (%s)", created.FullName, created.Email),
			EntityID:     &created.ID,
			EntityType:   activity.EntityTypeUser,
			NewData:      created,
		})
		if err != nil {
			s.logger.Error("failed to record activity", "userId", created.ID, "error", err)
		}
	}

	return created, nil
}
