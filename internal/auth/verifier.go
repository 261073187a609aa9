package auth

import (
	"context"
	"errors"

	"github.com/rosterhq/roster/internal/identity"
)

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a bearer token to the principal it was issued for.
// Verification failures return ErrInvalidToken; any other error means the
// verifier itself could not be reached.
type Verifier interface {
	Verify(ctx context.Context, token string) (*identity.Principal, error)
}
