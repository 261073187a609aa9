package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	kratos "github.com/ory/kratos-client-go"
)

// KratosProvider implements Provider against the Ory Kratos admin API.
type KratosProvider struct {
	client   *kratos.APIClient
	schemaID string
}

// NewKratosProvider creates a provider for the Kratos admin API at adminURL.
func NewKratosProvider(adminURL, schemaID string, timeout time.Duration) *KratosProvider {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: adminURL},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &KratosProvider{
		client:   kratos.NewAPIClient(configuration),
		schemaID: schemaID,
	}
}

// CreatePrincipal creates a Kratos identity with a password credential and a
// verified email address.
func (p *KratosProvider) CreatePrincipal(ctx context.Context, email, password string) (*Principal, error) {
	body := kratos.CreateIdentityBody{
		SchemaId: p.schemaID,
		Traits:   map[string]interface{}{"email": email},
		Credentials: &kratos.IdentityWithCredentials{
			Password: &kratos.IdentityWithCredentialsPassword{
				Config: &kratos.IdentityWithCredentialsPasswordConfig{
					Password: &password,
				},
			},
		},
		VerifiableAddresses: []kratos.VerifiableIdentityAddress{
			{
				Value:    email,
				Verified: true,
				Via:      "email",
				Status:   "completed",
			},
		},
	}

	created, resp, err := p.client.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(body).Execute()
	if err != nil {
		return nil, kratosError(err, resp, "creating identity")
	}

	id, err := uuid.Parse(created.Id)
	if err != nil {
		return nil, fmt.Errorf("parsing kratos identity id %q: %w", created.Id, err)
	}

	return &Principal{ID: id, Email: email}, nil
}

// DeletePrincipal deletes a Kratos identity. A 404 counts as already deleted.
func (p *KratosProvider) DeletePrincipal(ctx context.Context, id uuid.UUID) error {
	resp, err := p.client.IdentityAPI.DeleteIdentity(ctx, id.String()).Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return kratosError(err, resp, "deleting identity")
	}
	return nil
}

// Check verifies the admin API answers.
func (p *KratosProvider) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, resp, err := p.client.MetadataAPI.GetVersion(ctx).Execute()
	if err != nil {
		return fmt.Errorf("kratos admin API unreachable: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kratos admin API returned status %d", resp.StatusCode)
	}
	return nil
}

type kratosErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// kratosError turns a client error into a ProviderError when Kratos answered
// with a structured rejection, and wraps transport failures otherwise.
func kratosError(err error, resp *http.Response, op string) error {
	if resp == nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pe := &ProviderError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	if apiErr, ok := err.(*kratos.GenericOpenAPIError); ok {
		var body kratosErrorBody
		if json.Unmarshal(apiErr.Body(), &body) == nil {
			switch {
			case body.Error.Reason != "":
				pe.Message = body.Error.Reason
			case body.Error.Message != "":
				pe.Message = body.Error.Message
			}
		}
	}

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %w", ErrPrincipalExists, pe)
	}
	return pe
}
