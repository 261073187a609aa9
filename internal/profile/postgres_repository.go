package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rosterhq/roster/internal/database"
)

const selectColumns = `
		SELECT id, email, full_name, role, phone_number, office_id, is_lead,
		       reporting_to_id, status, approval_status, added_by, added_time,
		       approved_by, approved_time
		FROM users`

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	db database.Querier
}

// NewRepository creates a new Repository backed by the given pool.
func NewRepository(db database.Querier) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new profile. The caller supplies every column, including
// the id issued by the identity provider; added_time is read back from the row.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO users (id, email, full_name, role, phone_number, office_id, is_lead,
		                   reporting_to_id, status, approval_status, added_by, added_time,
		                   approved_by, approved_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING added_time`

	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Email,
		p.FullName,
		string(p.Role),
		p.PhoneNumber,
		p.OfficeID,
		p.IsLead,
		p.ReportingToID,
		string(p.Status),
		string(p.ApprovalStatus),
		p.AddedBy,
		p.AddedTime,
		p.ApprovedBy,
		p.ApprovedTime,
	).Scan(&p.AddedTime)
	if err != nil {
		switch database.PgErrorCode(err) {
		case database.CodeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicateProfile, err)
		case database.CodeForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrUnknownReportingTo, err)
		case database.CodeCheckViolation:
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		return fmt.Errorf("inserting profile: %w", err)
	}

	return nil
}

// GetByID retrieves a single profile by its principal id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.scanOne(ctx, selectColumns+` WHERE id = $1`, id)
}

// GetByEmail retrieves a single profile by email, case-insensitively.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return r.scanOne(ctx, selectColumns+` WHERE lower(email) = lower($1)`, email)
}

// CountAll returns the total number of profiles.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting profiles: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Profile, error) {
	var p Profile
	var role, status, approvalStatus string
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Email, &p.FullName, &role, &p.PhoneNumber, &p.OfficeID, &p.IsLead,
		&p.ReportingToID, &status, &approvalStatus, &p.AddedBy, &p.AddedTime,
		&p.ApprovedBy, &p.ApprovedTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p.Role = Role(role)
	p.Status = Status(status)
	p.ApprovalStatus = ApprovalStatus(approvalStatus)

	return &p, nil
}
