package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	kratos "github.com/ory/kratos-client-go"

	"github.com/rosterhq/roster/internal/identity"
)

// KratosVerifier verifies Kratos session tokens against the public API.
type KratosVerifier struct {
	client  *kratos.APIClient
	timeout time.Duration
}

// NewKratosVerifier creates a verifier for the Kratos public API at publicURL.
func NewKratosVerifier(publicURL string, timeout time.Duration) *KratosVerifier {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: publicURL},
	}
	configuration.HTTPClient = &http.Client{Timeout: timeout}

	return &KratosVerifier{
		client:  kratos.NewAPIClient(configuration),
		timeout: timeout,
	}
}

// Verify exchanges a session token for the session's identity.
func (v *KratosVerifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	session, resp, err := v.client.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("verifying kratos session: %w", err)
	}

	if session.Active != nil && !*session.Active {
		return nil, ErrInvalidToken
	}
	if session.Identity == nil {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(session.Identity.Id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email := ""
	if traits, ok := session.Identity.Traits.(map[string]interface{}); ok {
		if s, ok := traits["email"].(string); ok {
			email = s
		}
	}

	return &identity.Principal{ID: id, Email: email}, nil
}
