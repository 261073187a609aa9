package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when a profile record is not found.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDuplicateProfile is returned when a profile with the same id or email already exists.
var ErrDuplicateProfile = errors.New("profile already exists")

// ErrUnknownReportingTo is returned when reporting_to_id references no profile.
var ErrUnknownReportingTo = errors.New("reporting_to_id does not reference an existing user")

// ErrInvalidProfile is returned when a row breaks a table constraint, such as
// a non-director without an office.
var ErrInvalidProfile = errors.New("profile violates a table constraint")

// Repository provides operations on the users table.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	CountAll(ctx context.Context) (int, error)
}
