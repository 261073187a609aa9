package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhq/roster/internal/database"
)

// LocalProvider implements Provider on the principals table with bcrypt
// password hashes. It backs development setups that run without Kratos.
type LocalProvider struct {
	db         database.Querier
	bcryptCost int
	now        func() time.Time
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(db database.Querier, bcryptCost int) *LocalProvider {
	return &LocalProvider{
		db:         db,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// CreatePrincipal hashes the password and inserts a confirmed principal.
func (p *LocalProvider) CreatePrincipal(ctx context.Context, email, password string) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ProviderError{StatusCode: 400, Message: "Password is too long"}
		}
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	principal := &Principal{ID: uuid.New(), Email: strings.TrimSpace(email)}

	query := `
		INSERT INTO principals (id, email, password_hash, email_confirmed_at)
		VALUES ($1, $2, $3, $4)`

	_, err = p.db.Exec(ctx, query, principal.ID, principal.Email, string(hash), p.now().UTC())
	if err != nil {
		if database.PgErrorCode(err) == database.CodeUniqueViolation {
			return nil, ErrPrincipalExists
		}
		return nil, fmt.Errorf("inserting principal: %w", err)
	}

	return principal, nil
}

// DeletePrincipal removes the principal row if present.
func (p *LocalProvider) DeletePrincipal(ctx context.Context, id uuid.UUID) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM principals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting principal: %w", err)
	}
	return nil
}

// Check is a no-op; the principals table shares the profile store's pool.
func (p *LocalProvider) Check(_ context.Context) error {
	return nil
}

// Authenticate resolves an email/password pair to its principal.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	var idText, hash string
	err := p.db.QueryRow(ctx,
		`SELECT id::text, password_hash FROM principals WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	).Scan(&idText, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("querying principal: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("parsing principal id: %w", err)
	}

	return &Principal{ID: id, Email: strings.TrimSpace(email)}, nil
}
