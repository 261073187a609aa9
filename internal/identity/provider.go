package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrPrincipalExists is returned when the email is already registered.
var ErrPrincipalExists = errors.New("A user with this email address has already been registered")

// ErrInvalidCredentials is returned when an email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Principal is an authenticated identity owned by the identity provider.
type Principal struct {
	ID    uuid.UUID
	Email string
}

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider creates and deletes principals. Created principals have their
// email marked as confirmed.
type Provider interface {
	CreatePrincipal(ctx context.Context, email, password string) (*Principal, error)
	// DeletePrincipal removes a principal; deleting an unknown id is not an error.
	DeletePrincipal(ctx context.Context, id uuid.UUID) error
	Check(ctx context.Context) error
}

// ProviderError carries the identity provider's own explanation of a
// rejected call so it can be shown to the client unchanged.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}
