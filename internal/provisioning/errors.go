package provisioning

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rosterhq/roster/internal/identity"
)

// ErrForbidden wraps every rejection by the decision engine.
var ErrForbidden = errors.New("forbidden")

// Step names the external call an UpstreamError came from.
type Step string

const (
	StepIdentity Step = "identity"
	StepProfile  Step = "profile"
)

// UpstreamError is a failure reported by the identity provider or the profile store.
type UpstreamError struct {
	Step    Step
	Outcome Outcome
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s step failed (%s): %v", e.Step, e.Outcome, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Message is the upstream's own explanation, suitable for the client.
func (e *UpstreamError) Message() string {
	var provErr *identity.ProviderError
	if errors.As(e.Err, &provErr) && provErr.Message != "" {
		return provErr.Message
	}
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	if errors.Is(e.Err, identity.ErrPrincipalExists) {
		return identity.ErrPrincipalExists.Error()
	}
	return e.Err.Error()
}
